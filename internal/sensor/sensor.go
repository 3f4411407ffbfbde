// Package sensor provides gravity sources for the simulation: fixed
// directions, device orientation, accelerometer samples and a rotating
// demo source.
package sensor

import (
	"sync"

	"github.com/san-kum/dropsim/internal/dynamo"
)

var (
	Down  = dynamo.Vec2{0, 1}
	Up    = dynamo.Vec2{0, -1}
	Left  = dynamo.Vec2{-1, 0}
	Right = dynamo.Vec2{1, 0}
)

// Fixed always reports the same vector.
type Fixed struct {
	G dynamo.Vec2
}

func (f Fixed) Gravity() dynamo.Vec2 { return f.G }

// Manual is a source whose vector is set by the caller, for example from
// key presses or stream commands.
type Manual struct {
	mu sync.RWMutex
	g  dynamo.Vec2
}

func NewManual(g dynamo.Vec2) *Manual {
	return &Manual{g: g}
}

func (m *Manual) Set(g dynamo.Vec2) {
	m.mu.Lock()
	m.g = g
	m.mu.Unlock()
}

func (m *Manual) Gravity() dynamo.Vec2 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.g
}

// Cycle steps through a list of directions, holding each for a fixed number
// of polls. Since the simulation polls once per tick this rotates gravity
// on a tick schedule.
type Cycle struct {
	mu    sync.Mutex
	dirs  []dynamo.Vec2
	every int
	polls int
}

// NewCycle holds each direction for every polls. With no directions it
// turns clockwise through down, left, up and right.
func NewCycle(every int, dirs ...dynamo.Vec2) *Cycle {
	if every <= 0 {
		every = 1
	}
	if len(dirs) == 0 {
		dirs = []dynamo.Vec2{Down, Left, Up, Right}
	}
	return &Cycle{dirs: dirs, every: every}
}

func (c *Cycle) Gravity() dynamo.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.dirs[(c.polls/c.every)%len(c.dirs)]
	c.polls++
	return g
}
