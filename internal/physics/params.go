package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dropsim/internal/dynamo"
)

// Params holds the tunable constants of every physics pass.
type Params struct {
	GravityStrength   float64
	MassGravityFactor float64 // heavier bodies fall slightly faster
	AirResistance     float64
	SurfaceFriction   float64 // applied once per touching neighbour
	MinVelocity       float64
	StableEpsilon     float64
	RotationFriction  float64
	MinRotationSpeed  float64

	BaseRestitution        float64
	StableRestitutionScale float64
	// ImpulseScale multiplies the reduced mass in the impulse. 1 returns
	// exactly e times the closing speed; 2 doubles it.
	ImpulseScale      float64
	RotationTransfer  float64
	SeparationSlop    float64
	CoincidentEpsilon float64

	BounceDamping float64
	// Bounces slower than this come to rest against the wall.
	RestSpeed float64

	MassCoefficient float64
	MassCap         float64
}

func DefaultParams() Params {
	return Params{
		GravityStrength:   2000,
		MassGravityFactor: 0.1,
		AirResistance:     0.995,
		SurfaceFriction:   0.99,
		MinVelocity:       1.0,
		StableEpsilon:     0.1,
		RotationFriction:  0.95,
		MinRotationSpeed:  0.1,

		BaseRestitution:        0.002,
		StableRestitutionScale: 0.01,
		ImpulseScale:           1,
		RotationTransfer:       0.02,
		SeparationSlop:         1.0,
		CoincidentEpsilon:      0.01,

		BounceDamping: 0.8,
		RestSpeed:     50,

		MassCoefficient: 0.0001,
		MassCap:         10,
	}
}

// paramField binds a parameter name, as used in config files, to its
// field and valid range.
type paramField struct {
	name   string
	v      *float64
	lo, hi float64
}

func (p *Params) fields() []paramField {
	inf := math.Inf(1)
	return []paramField{
		{"gravity", &p.GravityStrength, 0, inf},
		{"mass_gravity_factor", &p.MassGravityFactor, 0, inf},
		{"air_resistance", &p.AirResistance, 0, 1},
		{"surface_friction", &p.SurfaceFriction, 0, 1},
		{"min_velocity", &p.MinVelocity, 0, inf},
		{"stable_epsilon", &p.StableEpsilon, 0, inf},
		{"rotation_friction", &p.RotationFriction, 0, 1},
		{"min_rotation_speed", &p.MinRotationSpeed, 0, inf},
		{"base_restitution", &p.BaseRestitution, 0, 1},
		{"stable_restitution_scale", &p.StableRestitutionScale, 0, 1},
		{"impulse_scale", &p.ImpulseScale, 0, 2},
		{"rotation_transfer", &p.RotationTransfer, 0, inf},
		{"separation_slop", &p.SeparationSlop, 0, inf},
		{"coincident_epsilon", &p.CoincidentEpsilon, 0, inf},
		{"bounce_damping", &p.BounceDamping, 0, 1},
		{"rest_speed", &p.RestSpeed, 0, inf},
		{"mass_coefficient", &p.MassCoefficient, 0, inf},
		{"mass_cap", &p.MassCap, 0, inf},
	}
}

func (p Params) Validate() error {
	for _, f := range p.fields() {
		if math.IsNaN(*f.v) || *f.v < f.lo || *f.v > f.hi {
			return fmt.Errorf("%s = %v not in [%v, %v]: %w", f.name, *f.v, f.lo, f.hi, dynamo.ErrParameterBounds)
		}
	}
	if p.ImpulseScale == 0 {
		return fmt.Errorf("impulse_scale must be positive: %w", dynamo.ErrParameterBounds)
	}
	if p.MassCoefficient == 0 || p.MassCap == 0 {
		return fmt.Errorf("mass model must be positive: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

// NewBody creates a body using the mass model in p.
func (p Params) NewBody(id dynamo.BodyID, spec dynamo.BodySpec) (dynamo.Body, error) {
	return dynamo.NewBody(id, spec, p.MassCoefficient, p.MassCap)
}

// GetParams returns every parameter by name.
func (p Params) GetParams() map[string]float64 {
	fields := p.fields()
	out := make(map[string]float64, len(fields))
	for _, f := range fields {
		out[f.name] = *f.v
	}
	return out
}

// SetParam changes one parameter by name. The change is rejected, and p
// left untouched, when the result does not validate.
func (p *Params) SetParam(name string, value float64) error {
	next := *p
	found := false
	for _, f := range next.fields() {
		if f.name == name {
			*f.v = value
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown parameter %q: %w", name, dynamo.ErrParameterBounds)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}
