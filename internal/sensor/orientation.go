package sensor

import (
	"sync"

	"github.com/san-kum/dropsim/internal/dynamo"
)

type DeviceOrientation int

const (
	Unknown DeviceOrientation = iota
	Portrait
	PortraitUpsideDown
	LandscapeLeft
	LandscapeRight
	FaceUp
	FaceDown
)

var orientationNames = map[DeviceOrientation]string{
	Unknown:            "unknown",
	Portrait:           "portrait",
	PortraitUpsideDown: "upside-down",
	LandscapeLeft:      "landscape-left",
	LandscapeRight:     "landscape-right",
	FaceUp:             "face-up",
	FaceDown:           "face-down",
}

func (o DeviceOrientation) String() string {
	if s, ok := orientationNames[o]; ok {
		return s
	}
	return "unknown"
}

// Vector maps an orientation to screen-space gravity. Flat and unknown
// orientations have no screen direction.
func (o DeviceOrientation) Vector() (dynamo.Vec2, bool) {
	switch o {
	case Portrait:
		return Down, true
	case PortraitUpsideDown:
		return Up, true
	case LandscapeLeft:
		return Right, true
	case LandscapeRight:
		return Left, true
	}
	return dynamo.Vec2{}, false
}

// OrientationToward returns the orientation whose gravity points at the
// named screen edge, as used by arrow keys.
func OrientationToward(dir string) (DeviceOrientation, bool) {
	switch dir {
	case "down":
		return Portrait, true
	case "up":
		return PortraitUpsideDown, true
	case "right":
		return LandscapeLeft, true
	case "left":
		return LandscapeRight, true
	}
	return Unknown, false
}

// clockwise order of the four screen orientations
var rotation = []DeviceOrientation{Portrait, LandscapeLeft, PortraitUpsideDown, LandscapeRight}

// Orientation reports gravity from the device orientation. Orientations
// without a screen direction keep the last known vector.
type Orientation struct {
	mu      sync.RWMutex
	current DeviceOrientation
	g       dynamo.Vec2
}

func NewOrientation() *Orientation {
	return &Orientation{current: Portrait, g: Down}
}

// Set records a new orientation and reports whether gravity changed.
func (o *Orientation) Set(d DeviceOrientation) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := d.Vector()
	if !ok {
		return false
	}
	changed := v != o.g
	o.current = d
	o.g = v
	return changed
}

// Rotate turns the device a quarter turn.
func (o *Orientation) Rotate(clockwise bool) DeviceOrientation {
	o.mu.Lock()
	defer o.mu.Unlock()
	idx := 0
	for i, d := range rotation {
		if d == o.current {
			idx = i
		}
	}
	if clockwise {
		idx = (idx + 1) % len(rotation)
	} else {
		idx = (idx + len(rotation) - 1) % len(rotation)
	}
	o.current = rotation[idx]
	o.g, _ = o.current.Vector()
	return o.current
}

func (o *Orientation) Current() DeviceOrientation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

func (o *Orientation) Gravity() dynamo.Vec2 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.g
}
