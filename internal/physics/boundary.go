package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dropsim/internal/dynamo"
)

// Arena is the rectangular play area. The insets reserve screen space for
// chrome at the top and bottom; bodies never enter it.
type Arena struct {
	Width       float64 `yaml:"width" json:"width"`
	Height      float64 `yaml:"height" json:"height"`
	TopInset    float64 `yaml:"top_inset" json:"top_inset"`
	BottomInset float64 `yaml:"bottom_inset" json:"bottom_inset"`
}

func (a Arena) Validate() error {
	for _, v := range [...]float64{a.Width, a.Height, a.TopInset, a.BottomInset} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite dimension: %w", dynamo.ErrInvalidArena)
		}
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("size %vx%v: %w", a.Width, a.Height, dynamo.ErrInvalidArena)
	}
	if a.TopInset < 0 || a.BottomInset < 0 {
		return fmt.Errorf("negative inset: %w", dynamo.ErrInvalidArena)
	}
	if a.Height-a.TopInset-a.BottomInset <= 0 {
		return fmt.Errorf("insets %v+%v leave no room in height %v: %w",
			a.TopInset, a.BottomInset, a.Height, dynamo.ErrInvalidArena)
	}
	return nil
}

// Floor is the y coordinate of the bottom edge of the playable band.
func (a Arena) Floor() float64 { return a.Height - a.BottomInset }

// Bounds returns the range a centre of radius r may occupy. When the band is
// narrower than the body the range collapses onto the band's midpoint.
func (a Arena) Bounds(r float64) (minX, maxX, minY, maxY float64) {
	minX, maxX = collapse(r, a.Width-r)
	minY, maxY = collapse(a.TopInset+r, a.Floor()-r)
	return
}

func collapse(lo, hi float64) (float64, float64) {
	if lo > hi {
		mid := (lo + hi) / 2
		return mid, mid
	}
	return lo, hi
}

// ClampPoint maps a raw screen point into the playable band for a body of
// radius r.
func (a Arena) ClampPoint(pt dynamo.Vec2, r float64) dynamo.Vec2 {
	minX, maxX, minY, maxY := a.Bounds(r)
	return dynamo.Vec2{clamp(pt[0], minX, maxX), clamp(pt[1], minY, maxY)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Contain clamps every body into the arena and reflects the velocity
// component that carried it into a wall. A reflected component slower than
// RestSpeed is zeroed and the wall is recorded in Resting so the next
// integration step does not push the body back into it.
func (a Arena) Contain(bodies []dynamo.Body, p Params) {
	for i := range bodies {
		a.containBody(&bodies[i], p)
	}
}

func (a Arena) containBody(b *dynamo.Body, p Params) {
	minX, maxX, minY, maxY := a.Bounds(b.Radius)
	b.Resting = 0

	if b.Pos[0] <= minX {
		b.Pos[0] = minX
		b.Resting |= bounce(&b.Vel[0], 1, dynamo.WallLeft, p)
	}
	if b.Pos[0] >= maxX {
		b.Pos[0] = maxX
		b.Resting |= bounce(&b.Vel[0], -1, dynamo.WallRight, p)
	}
	if b.Pos[1] <= minY {
		b.Pos[1] = minY
		b.Resting |= bounce(&b.Vel[1], 1, dynamo.WallTop, p)
	}
	if b.Pos[1] >= maxY {
		b.Pos[1] = maxY
		b.Resting |= bounce(&b.Vel[1], -1, dynamo.WallBottom, p)
	}
}

// bounce reflects v when it points out through the wall whose inward
// direction is inward, and reports the wall if the body came to rest on it.
// A component already heading away from the wall is left alone.
func bounce(v *float64, inward float64, w dynamo.Wall, p Params) dynamo.Wall {
	if *v*inward > 0 {
		return 0
	}
	*v = -*v * p.BounceDamping
	if math.Abs(*v) < p.RestSpeed {
		*v = 0
		return w
	}
	return 0
}
