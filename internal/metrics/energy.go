package metrics

import (
	"math"

	"github.com/san-kum/dropsim/internal/dynamo"
)

// Energy is the mean total kinetic energy over observed ticks.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s dynamo.Snapshot) {
	e.totalEnergy += s.KineticEnergy()
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyPeak is the largest kinetic energy seen in a single tick.
type EnergyPeak struct {
	name string
	peak float64
}

func NewEnergyPeak() *EnergyPeak {
	return &EnergyPeak{name: "energy_peak"}
}

func (e *EnergyPeak) Name() string { return e.name }

func (e *EnergyPeak) Observe(s dynamo.Snapshot) {
	e.peak = math.Max(e.peak, s.KineticEnergy())
}

func (e *EnergyPeak) Value() float64 { return e.peak }

func (e *EnergyPeak) Reset() { e.peak = 0 }
