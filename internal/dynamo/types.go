package dynamo

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2D vector in arena coordinates (y grows downward).
type Vec2 = mgl64.Vec2

// Down is the default gravity direction.
var Down = Vec2{0, 1}

// GravitySource supplies the gravity direction. It is polled exactly once
// at the start of every tick.
type GravitySource interface {
	Gravity() Vec2
}

// Impact describes one resolved collision between two bodies.
type Impact struct {
	A, B   BodyID
	Speed  float64 // closing speed along the contact normal
	Point  Vec2
	Radius float64 // of the smaller body
}

// Snapshot is an immutable copy of the simulation after a tick.
type Snapshot struct {
	Tick         uint64
	Time         float64
	Bodies       []Body
	Gravity      Vec2
	ContactPairs int
	Impacts      int
	Running      bool
}

func (s Snapshot) Len() int { return len(s.Bodies) }

func (s Snapshot) KineticEnergy() float64 {
	e := 0.0
	for i := range s.Bodies {
		e += s.Bodies[i].KineticEnergy()
	}
	return e
}

func (s Snapshot) StableCount() int {
	n := 0
	for i := range s.Bodies {
		if s.Bodies[i].Stable {
			n++
		}
	}
	return n
}

// StableFraction is the share of stable bodies; an empty arena counts as settled.
func (s Snapshot) StableFraction() float64 {
	if len(s.Bodies) == 0 {
		return 1
	}
	return float64(s.StableCount()) / float64(len(s.Bodies))
}

func (s Snapshot) MeanContacts() float64 {
	if len(s.Bodies) == 0 {
		return 0
	}
	sum := 0
	for i := range s.Bodies {
		sum += s.Bodies[i].Contacts
	}
	return float64(sum) / float64(len(s.Bodies))
}

// Direction names the dominant axis of the gravity vector for HUD display.
func Direction(g Vec2) string {
	if g[0] == 0 && g[1] == 0 {
		return "none"
	}
	if math.Abs(g[0]) > math.Abs(g[1]) {
		if g[0] > 0 {
			return "right"
		}
		return "left"
	}
	if g[1] > 0 {
		return "down"
	}
	return "up"
}

type Observer interface {
	OnTick(s Snapshot)
}

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Frame is the per-tick aggregate recorded by headless runs.
type Frame struct {
	Tick           uint64  `json:"tick"`
	Time           float64 `json:"time"`
	Population     int     `json:"population"`
	KineticEnergy  float64 `json:"kinetic_energy"`
	StableFraction float64 `json:"stable_fraction"`
	ContactPairs   int     `json:"contact_pairs"`
	Impacts        int     `json:"impacts"`
}

func FrameOf(s Snapshot) Frame {
	return Frame{
		Tick:           s.Tick,
		Time:           s.Time,
		Population:     s.Len(),
		KineticEnergy:  s.KineticEnergy(),
		StableFraction: s.StableFraction(),
		ContactPairs:   s.ContactPairs,
		Impacts:        s.Impacts,
	}
}

type Result struct {
	Frames  []Frame
	Final   Snapshot
	Metrics map[string]float64
	Ticks   int
	Elapsed time.Duration
	Seed    int64
}

// TicksPerSecond reports wall-clock throughput of the run.
func (r *Result) TicksPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ticks) / r.Elapsed.Seconds()
}
