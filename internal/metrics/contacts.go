package metrics

import (
	"github.com/san-kum/dropsim/internal/dynamo"
)

// Contacts is the mean number of touching neighbours per body.
type Contacts struct {
	name    string
	sum     float64
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts"}
}

func (c *Contacts) Name() string {
	return c.name
}

func (c *Contacts) Observe(s dynamo.Snapshot) {
	c.sum += s.MeanContacts()
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.sum = 0
	c.samples = 0
}

// Impacts counts resolved collisions.
type Impacts struct {
	name  string
	count int
}

func NewImpacts() *Impacts {
	return &Impacts{name: "impacts"}
}

func (i *Impacts) Name() string { return i.name }

func (i *Impacts) Observe(s dynamo.Snapshot) { i.count += s.Impacts }

func (i *Impacts) Value() float64 { return float64(i.count) }

func (i *Impacts) Reset() { i.count = 0 }

// Default returns a fresh set of the standard metrics.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(),
		NewEnergyPeak(),
		NewStability(),
		NewSettleTime(30),
		NewContacts(),
		NewImpacts(),
	}
}
