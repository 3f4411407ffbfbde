package dynamo

import "math"

// headingTable holds unit vectors for whole-degree headings. Rotation
// markers are drawn every frame for every body and never need more
// precision than a tenth of a degree.
type headingTable struct {
	dirs []Vec2
	step float64 // degrees per entry
}

var headings = newHeadingTable(3600)

func newHeadingTable(n int) *headingTable {
	t := &headingTable{dirs: make([]Vec2, n), step: 360 / float64(n)}
	for i := range t.dirs {
		rad := float64(i) * t.step * math.Pi / 180
		t.dirs[i] = Vec2{math.Cos(rad), math.Sin(rad)}
	}
	return t
}

func (t *headingTable) at(degrees float64) Vec2 {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	idx := d / t.step
	i := int(idx)
	frac := idx - float64(i)
	a := t.dirs[i%len(t.dirs)]
	b := t.dirs[(i+1)%len(t.dirs)]
	return a.Mul(1 - frac).Add(b.Mul(frac))
}

// Heading returns the unit direction of a rotation in degrees, measured
// clockwise from +x in arena coordinates. Non-finite input gives +x.
func Heading(degrees float64) Vec2 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return Vec2{1, 0}
	}
	return headings.at(degrees)
}
