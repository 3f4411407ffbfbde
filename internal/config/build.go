package config

import (
	"fmt"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/metrics"
	"github.com/san-kum/dropsim/internal/sensor"
	"github.com/san-kum/dropsim/internal/sim"
)

// GravitySource resolves Sim.Gravity against the built-in sensor registry.
// Every call returns a fresh source.
func (c *Config) GravitySource() (dynamo.GravitySource, error) {
	src, err := sensor.NewRegistry().Get(c.Sim.Gravity)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, dynamo.ErrInvalidConfig)
	}
	return src, nil
}

// NewSimulation builds a stopped simulation with the configured gravity
// source. Options are applied after the gravity source, so WithGravity
// overrides it.
func (c *Config) NewSimulation(opts ...sim.Option) (*sim.Simulation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	src, err := c.GravitySource()
	if err != nil {
		return nil, err
	}
	return sim.New(c.ToSim(), append([]sim.Option{sim.WithGravity(src)}, opts...)...)
}

// Populate drops Spawn.Count bodies at random points.
func (c *Config) Populate(s *sim.Simulation) error {
	for i := 0; i < c.Spawn.Count; i++ {
		if _, err := s.SpawnRandom(); err != nil {
			return err
		}
	}
	return nil
}

// Headless returns the ensemble run for this config: a fresh gravity
// source and the default metrics per run.
func (c *Config) Headless() (dynamo.RunFunc, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return sim.Headless(c.ToSim(), c.Spawn.Count, c.Sim.Ticks, func() []sim.Option {
		src, _ := c.GravitySource()
		opts := []sim.Option{sim.WithGravity(src)}
		for _, m := range metrics.Default() {
			opts = append(opts, sim.WithMetric(m))
		}
		return opts
	}), nil
}

// SetParam changes one physics constant by its key in the physics section.
func (c *Config) SetParam(name string, value float64) error {
	p := c.Params()
	if err := p.SetParam(name, value); err != nil {
		return err
	}
	c.Physics = physicsFromParams(p)
	return nil
}
