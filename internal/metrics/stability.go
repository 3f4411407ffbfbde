package metrics

import (
	"github.com/san-kum/dropsim/internal/dynamo"
)

// Stability is the mean fraction of stable bodies per tick.
type Stability struct {
	name    string
	sum     float64
	samples int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(snap dynamo.Snapshot) {
	s.sum += snap.StableFraction()
	s.samples++
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return s.sum / float64(s.samples)
}

func (s *Stability) Reset() {
	s.sum = 0
	s.samples = 0
}

// SettleTime records the simulated time at which every body first became
// stable for a run of consecutive ticks. It reports -1 until then.
type SettleTime struct {
	name    string
	hold    int
	streak  int
	startAt float64
	settled float64
}

// NewSettleTime requires hold consecutive all-stable ticks before the pile
// counts as settled.
func NewSettleTime(hold int) *SettleTime {
	if hold <= 0 {
		hold = 1
	}
	return &SettleTime{name: "settle_time", hold: hold, settled: -1}
}

func (s *SettleTime) Name() string { return s.name }

func (s *SettleTime) Observe(snap dynamo.Snapshot) {
	if s.settled >= 0 {
		return
	}
	if snap.Len() == 0 || snap.StableCount() != snap.Len() {
		s.streak = 0
		return
	}
	if s.streak == 0 {
		s.startAt = snap.Time
	}
	s.streak++
	if s.streak >= s.hold {
		s.settled = s.startAt
	}
}

func (s *SettleTime) Value() float64 { return s.settled }

func (s *SettleTime) Reset() {
	s.streak = 0
	s.startAt = 0
	s.settled = -1
}
