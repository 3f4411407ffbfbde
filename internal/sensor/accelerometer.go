package sensor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/san-kum/dropsim/internal/dynamo"
)

// Sample is one accelerometer reading in device axes (x right, y up, in g).
type Sample struct {
	X, Y float64
	At   time.Time
}

// AccelScale converts device acceleration to screen gravity.
const AccelScale = 0.5

// DefaultMaxAge matches a 10 Hz sensor that missed a few updates.
const DefaultMaxAge = 500 * time.Millisecond

// Accelerometer maps raw samples to screen gravity. Until the first sample
// arrives it reports straight down; afterwards it keeps the last good
// reading for as long as the sensor stays silent.
type Accelerometer struct {
	mu     sync.RWMutex
	g      dynamo.Vec2
	last   time.Time
	maxAge time.Duration
	now    func() time.Time
}

// NewAccelerometer creates a source that considers readings older than
// maxAge stale. Zero disables the staleness check.
func NewAccelerometer(maxAge time.Duration) *Accelerometer {
	return &Accelerometer{g: Down, maxAge: maxAge, now: time.Now}
}

// Update applies a sample. Non-finite readings are dropped.
func (a *Accelerometer) Update(s Sample) bool {
	if math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsInf(s.X, 0) || math.IsInf(s.Y, 0) {
		return false
	}
	at := s.At
	if at.IsZero() {
		at = a.now()
	}
	a.mu.Lock()
	// screen y grows downward, device y grows upward
	a.g = dynamo.Vec2{s.X * AccelScale, -s.Y * AccelScale}
	a.last = at
	a.mu.Unlock()
	return true
}

// Run applies samples until the channel closes or ctx is done.
func (a *Accelerometer) Run(ctx context.Context, samples <-chan Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			a.Update(s)
		}
	}
}

// Stale reports whether the newest sample is older than the configured age
// or no sample has arrived yet.
func (a *Accelerometer) Stale() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last.IsZero() {
		return true
	}
	return a.maxAge > 0 && a.now().Sub(a.last) > a.maxAge
}

func (a *Accelerometer) Gravity() dynamo.Vec2 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.g
}
