package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
	"github.com/san-kum/dropsim/internal/sensor"
	"github.com/san-kum/dropsim/internal/sim"
)

const (
	DefaultWidth       = 390.0
	DefaultHeight      = 844.0
	DefaultTopInset    = 50.0
	DefaultBottomInset = 100.0
	DefaultTickRate    = 60
	DefaultBodies      = 30
	DefaultTicks       = 600
	DefaultGravity     = "down"
)

type Config struct {
	Arena   physics.Arena `yaml:"arena"`
	Physics PhysicsConfig `yaml:"physics"`
	Spawn   SpawnConfig   `yaml:"spawn"`
	Sim     SimConfig     `yaml:"sim"`
}

type PhysicsConfig struct {
	Gravity                float64 `yaml:"gravity"`
	MassGravityFactor      float64 `yaml:"mass_gravity_factor"`
	AirResistance          float64 `yaml:"air_resistance"`
	SurfaceFriction        float64 `yaml:"surface_friction"`
	MinVelocity            float64 `yaml:"min_velocity"`
	StableEpsilon          float64 `yaml:"stable_epsilon"`
	RotationFriction       float64 `yaml:"rotation_friction"`
	MinRotationSpeed       float64 `yaml:"min_rotation_speed"`
	BaseRestitution        float64 `yaml:"base_restitution"`
	StableRestitutionScale float64 `yaml:"stable_restitution_scale"`
	ImpulseScale           float64 `yaml:"impulse_scale"`
	RotationTransfer       float64 `yaml:"rotation_transfer"`
	SeparationSlop         float64 `yaml:"separation_slop"`
	CoincidentEpsilon      float64 `yaml:"coincident_epsilon"`
	BounceDamping          float64 `yaml:"bounce_damping"`
	RestSpeed              float64 `yaml:"rest_speed"`
	MassCoefficient        float64 `yaml:"mass_coefficient"`
	MassCap                float64 `yaml:"mass_cap"`
}

type SpawnConfig struct {
	SizeMin float64 `yaml:"size_min"`
	SizeMax float64 `yaml:"size_max"`
	Speed   float64 `yaml:"speed"`
	// Count is the number of bodies dropped before a headless run.
	Count int `yaml:"count"`
}

type SimConfig struct {
	TickRate      int    `yaml:"tick_rate"`
	MaxBodies     int    `yaml:"max_bodies"`
	Seed          int64  `yaml:"seed"`
	Gravity       string `yaml:"gravity"`
	ValidateState bool   `yaml:"validate_state"`
	Ticks         int    `yaml:"ticks"`
}

func DefaultConfig() *Config {
	p := physics.DefaultParams()
	return &Config{
		Arena: physics.Arena{
			Width:       DefaultWidth,
			Height:      DefaultHeight,
			TopInset:    DefaultTopInset,
			BottomInset: DefaultBottomInset,
		},
		Physics: physicsFromParams(p),
		Spawn: SpawnConfig{
			SizeMin: 10,
			SizeMax: 80,
			Speed:   50,
			Count:   DefaultBodies,
		},
		Sim: SimConfig{
			TickRate: DefaultTickRate,
			Gravity:  DefaultGravity,
			Ticks:    DefaultTicks,
		},
	}
}

func physicsFromParams(p physics.Params) PhysicsConfig {
	return PhysicsConfig{
		Gravity:                p.GravityStrength,
		MassGravityFactor:      p.MassGravityFactor,
		AirResistance:          p.AirResistance,
		SurfaceFriction:        p.SurfaceFriction,
		MinVelocity:            p.MinVelocity,
		StableEpsilon:          p.StableEpsilon,
		RotationFriction:       p.RotationFriction,
		MinRotationSpeed:       p.MinRotationSpeed,
		BaseRestitution:        p.BaseRestitution,
		StableRestitutionScale: p.StableRestitutionScale,
		ImpulseScale:           p.ImpulseScale,
		RotationTransfer:       p.RotationTransfer,
		SeparationSlop:         p.SeparationSlop,
		CoincidentEpsilon:      p.CoincidentEpsilon,
		BounceDamping:          p.BounceDamping,
		RestSpeed:              p.RestSpeed,
		MassCoefficient:        p.MassCoefficient,
		MassCap:                p.MassCap,
	}
}

// Params converts the physics section.
func (c *Config) Params() physics.Params {
	p := physics.DefaultParams()
	f := c.Physics
	p.GravityStrength = f.Gravity
	p.MassGravityFactor = f.MassGravityFactor
	p.AirResistance = f.AirResistance
	p.SurfaceFriction = f.SurfaceFriction
	p.MinVelocity = f.MinVelocity
	p.StableEpsilon = f.StableEpsilon
	p.RotationFriction = f.RotationFriction
	p.MinRotationSpeed = f.MinRotationSpeed
	p.BaseRestitution = f.BaseRestitution
	p.StableRestitutionScale = f.StableRestitutionScale
	p.ImpulseScale = f.ImpulseScale
	p.RotationTransfer = f.RotationTransfer
	p.SeparationSlop = f.SeparationSlop
	p.CoincidentEpsilon = f.CoincidentEpsilon
	p.BounceDamping = f.BounceDamping
	p.RestSpeed = f.RestSpeed
	p.MassCoefficient = f.MassCoefficient
	p.MassCap = f.MassCap
	return p
}

func (c *Config) ToSim() sim.Config {
	return sim.Config{
		Arena:  c.Arena,
		Params: c.Params(),
		Spawn: sim.SpawnConfig{
			SizeMin: c.Spawn.SizeMin,
			SizeMax: c.Spawn.SizeMax,
			Speed:   c.Spawn.Speed,
		},
		TickRate:      c.Sim.TickRate,
		MaxBodies:     c.Sim.MaxBodies,
		Seed:          c.Sim.Seed,
		ValidateState: c.Sim.ValidateState,
	}
}

func (c *Config) Validate() error {
	if err := c.ToSim().Validate(); err != nil {
		return err
	}
	if c.Spawn.Count < 0 {
		return fmt.Errorf("spawn count must not be negative, got %d: %w", c.Spawn.Count, dynamo.ErrInvalidConfig)
	}
	if c.Sim.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d: %w", c.Sim.Ticks, dynamo.ErrInvalidConfig)
	}
	if _, err := sensor.NewRegistry().Get(c.Sim.Gravity); err != nil {
		return fmt.Errorf("%v: %w", err, dynamo.ErrInvalidConfig)
	}
	return nil
}

func Load(path string) (*Config, error) {
	return LoadOnto(DefaultConfig(), path)
}

// LoadOnto reads path over a copy of base; keys missing from the file keep
// their value from base.
func LoadOnto(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
