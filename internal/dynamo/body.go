package dynamo

import (
	"fmt"
	"math"
)

// BodyID identifies a body for the lifetime of a simulation.
type BodyID uint64

// Wall is a bitmask of arena edges a body is resting against.
type Wall uint8

const (
	WallLeft Wall = 1 << iota
	WallRight
	WallTop
	WallBottom
)

// Has reports whether w contains every edge in o.
func (w Wall) Has(o Wall) bool { return w&o == o }

// Normal returns the inward-pointing normal of a single edge.
func (w Wall) Normal() Vec2 {
	switch w {
	case WallLeft:
		return Vec2{1, 0}
	case WallRight:
		return Vec2{-1, 0}
	case WallTop:
		return Vec2{0, 1}
	case WallBottom:
		return Vec2{0, -1}
	}
	return Vec2{}
}

// Walls lists the single edges in a fixed order.
var Walls = [4]Wall{WallLeft, WallRight, WallTop, WallBottom}

type Shape int

const (
	ShapeCat Shape = iota
	ShapeDog
	ShapeRabbit
	ShapeBird
	ShapeFish
	ShapeButterfly
	ShapeBee
	ShapeLadybug
	ShapeFrog
	ShapeTurtle
	ShapePenguin
	ShapeOwl
	ShapeFox
	ShapeBear
	ShapePanda
	ShapeMonkey
	ShapeElephant
	ShapeLion
	ShapeTiger
	ShapeZebra
	NumShapes
)

var shapeNames = [NumShapes]string{
	"cat", "dog", "rabbit", "bird", "fish", "butterfly", "bee", "ladybug", "frog", "turtle",
	"penguin", "owl", "fox", "bear", "panda", "monkey", "elephant", "lion", "tiger", "zebra",
}

func (s Shape) String() string {
	if s < 0 || s >= NumShapes {
		return fmt.Sprintf("shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape is the inverse of Shape.String.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shape %q", name)
}

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor reads the #rrggbb form produced by Hex.
func ParseColor(hex string) (Color, error) {
	var c Color
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return Color{}, fmt.Errorf("color %q: %w", hex, err)
	}
	return c, nil
}

// Palette is the colour pool new bodies draw from.
var Palette = []Color{
	{255, 59, 48}, {0, 122, 255}, {52, 199, 89}, {255, 204, 0}, {255, 149, 0},
	{175, 82, 222}, {255, 45, 85}, {50, 173, 230}, {0, 199, 190}, {88, 86, 214},
	{48, 176, 199}, {162, 132, 94}, {142, 142, 147},
	{255, 153, 0},  // tiger
	{204, 102, 51}, // bear
	{51, 153, 204}, // bird
	{153, 204, 51}, // frog
	{230, 179, 77}, // lion
	{102, 51, 153}, // butterfly
	{204, 51, 51},  // ladybug
	{51, 204, 102},
	{153, 102, 204}, // penguin
	{204, 204, 51},  // bee
	{102, 153, 204}, // fish
	{204, 153, 102}, // rabbit
	{153, 204, 153}, // turtle
	{204, 102, 153}, // cat
	{102, 204, 204}, // dog
	{230, 128, 26},  // fox
	{26, 77, 179},   // owl
	{179, 77, 26},   // elephant
	{77, 179, 77},   // monkey
	{128, 128, 128}, // panda
}

// Body is a single simulated circular particle. It carries no behaviour;
// the physics passes mutate it in place.
type Body struct {
	ID            BodyID
	Pos           Vec2
	Vel           Vec2
	Size          float64
	Radius        float64
	Mass          float64
	Rotation      float64 // degrees
	RotationSpeed float64 // degrees per second

	// Rewritten every tick.
	Contacts int
	Stable   bool

	// Edges the body rested against at the end of the previous tick.
	Resting Wall

	Shape Shape
	Color Color
}

// BodySpec describes a body to create. Zero Size is invalid.
type BodySpec struct {
	Pos           Vec2
	Vel           Vec2
	Size          float64
	Rotation      float64
	RotationSpeed float64
	Shape         Shape
	Color         Color
}

// MassForSize derives mass from size: k*size^3, capped.
func MassForSize(size, k, limit float64) float64 {
	return math.Min(k*size*size*size, limit)
}

// NewBody builds a body from spec. Mass and radius are fixed from here on.
func NewBody(id BodyID, spec BodySpec, k, massCap float64) (Body, error) {
	if !(spec.Size > 0) || math.IsInf(spec.Size, 0) {
		return Body{}, fmt.Errorf("size %v: %w", spec.Size, ErrInvalidBody)
	}
	mass := MassForSize(spec.Size, k, massCap)
	if !(mass > 0) || math.IsInf(mass, 0) {
		return Body{}, fmt.Errorf("mass %v: %w", mass, ErrInvalidBody)
	}
	b := Body{
		ID:            id,
		Pos:           spec.Pos,
		Vel:           spec.Vel,
		Size:          spec.Size,
		Radius:        spec.Size / 2,
		Mass:          mass,
		Rotation:      spec.Rotation,
		RotationSpeed: spec.RotationSpeed,
		Shape:         spec.Shape,
		Color:         spec.Color,
	}
	if !b.IsValid() {
		return Body{}, fmt.Errorf("non-finite position or velocity: %w", ErrInvalidBody)
	}
	return b, nil
}

// Speed returns the magnitude of the body's velocity.
func (b *Body) Speed() float64 { return b.Vel.Len() }

// KineticEnergy returns the translational kinetic energy.
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Vel.Dot(b.Vel)
}

// IsValid reports whether every numeric field is finite.
func (b *Body) IsValid() bool {
	for _, v := range [...]float64{b.Pos[0], b.Pos[1], b.Vel[0], b.Vel[1], b.Rotation, b.RotationSpeed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
