// Package experiment runs one named scenario headlessly: it builds the
// simulation from a config, drops the configured bodies and records the
// standard metrics.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/dropsim/internal/config"
	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/metrics"
	"github.com/san-kum/dropsim/internal/sim"
)

type Experiment struct {
	Name string
	cfg  *config.Config
	sim  *sim.Simulation
}

func New(name string, cfg *config.Config) *Experiment {
	return &Experiment{Name: name, cfg: cfg}
}

// Setup builds the simulation with the default metrics and any extra
// options, then drops Spawn.Count bodies.
func (e *Experiment) Setup(opts ...sim.Option) error {
	all := make([]sim.Option, 0, len(opts)+6)
	for _, m := range metrics.Default() {
		all = append(all, sim.WithMetric(m))
	}
	s, err := e.cfg.NewSimulation(append(all, opts...)...)
	if err != nil {
		return err
	}
	if err := e.cfg.Populate(s); err != nil {
		return err
	}
	e.sim = s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.sim == nil {
		return nil, fmt.Errorf("experiment %s not set up", e.Name)
	}
	return e.sim.Run(ctx, e.cfg.Sim.Ticks)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Simulation returns the underlying simulation for adding observers.
func (e *Experiment) Simulation() *sim.Simulation { return e.sim }

// Resolve layers a configuration the way the CLI does: the preset (or the
// defaults when empty), then the YAML file when given.
func Resolve(preset, path string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if path != "" {
		loaded, err := config.LoadOnto(cfg, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return cfg, nil
}
