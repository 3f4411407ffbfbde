package config

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/dropsim/internal/dynamo"
)

func TestNewSimulationUsesConfiguredGravity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sim.Gravity = "left"
	cfg.Spawn.Count = 3

	s, err := cfg.NewSimulation()
	if err != nil {
		t.Fatal(err)
	}
	if s.Running() {
		t.Error("new simulation should start stopped")
	}
	if err := cfg.Populate(s); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 bodies, got %d", s.Len())
	}

	s.Start()
	s.Tick()
	if got := dynamo.Direction(s.Gravity()); got != "left" {
		t.Errorf("expected left gravity, got %s", got)
	}
}

func TestNewSimulationRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sim.Gravity = "sideways"
	if _, err := cfg.NewSimulation(); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestHeadlessEnsemble(t *testing.T) {
	cfg := GetPreset("swirl")
	cfg.Spawn.Count = 4
	cfg.Sim.Ticks = 20

	run, err := cfg.Headless()
	if err != nil {
		t.Fatal(err)
	}
	results, err := dynamo.NewEnsemble(run, 2, 1).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Ticks != 20 || r.Final.Len() != 4 {
			t.Errorf("run %d: %d ticks, %d bodies", i, r.Ticks, r.Final.Len())
		}
		if _, ok := r.Metrics["settle_time"]; !ok {
			t.Errorf("run %d: default metrics missing", i)
		}
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetParam("base_restitution", 0.4); err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.BaseRestitution != 0.4 {
		t.Errorf("expected 0.4, got %v", cfg.Physics.BaseRestitution)
	}
	if err := cfg.SetParam("min_velocity", 3); err != nil || cfg.Params().MinVelocity != 3 {
		t.Errorf("min_velocity not applied: %v", err)
	}
	if err := cfg.SetParam("coincident_epsilon", 0.5); err != nil || cfg.Physics.CoincidentEpsilon != 0.5 {
		t.Errorf("coincident_epsilon not applied: %v", err)
	}
	if err := cfg.SetParam("bounce_damping", 2); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if cfg.Physics.BounceDamping != 0.8 {
		t.Error("rejected value must not be applied")
	}
}
