package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Params() != physics.DefaultParams() {
		t.Error("default physics section should match default params")
	}
	if cfg.Sim.TickRate != 60 {
		t.Errorf("expected 60 Hz, got %d", cfg.Sim.TickRate)
	}
	if cfg.Sim.MaxBodies != 0 {
		t.Errorf("expected unbounded population by default, got %d", cfg.Sim.MaxBodies)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.yaml")
	data := []byte("physics:\n  gravity: 500\nsim:\n  max_bodies: 12\n  gravity: left\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Physics.Gravity != 500 || cfg.Sim.MaxBodies != 12 || cfg.Sim.Gravity != "left" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Physics.AirResistance != 0.995 || cfg.Arena.Width != DefaultWidth {
		t.Error("unset keys should keep defaults")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.yaml")
	cfg := GetPreset("bouncy")
	cfg.Sim.Seed = 42
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("arena: [1, 2"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"insets too tall", func(c *Config) { c.Arena.TopInset = 800 }, dynamo.ErrInvalidArena},
		{"friction above one", func(c *Config) { c.Physics.SurfaceFriction = 1.5 }, dynamo.ErrParameterBounds},
		{"zero tick rate", func(c *Config) { c.Sim.TickRate = 0 }, dynamo.ErrInvalidConfig},
		{"unknown gravity", func(c *Config) { c.Sim.Gravity = "sideways" }, dynamo.ErrInvalidConfig},
		{"negative count", func(c *Config) { c.Spawn.Count = -1 }, dynamo.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset invalid: %v", err)
			}
		})
	}

	if GetPreset("capped").Sim.MaxBodies != 40 {
		t.Error("capped preset should cap the population")
	}
	if GetPreset("classic").Params().ImpulseScale != 2 {
		t.Error("classic preset should double the impulse")
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsDoNotShareState(t *testing.T) {
	a := GetPreset("capped")
	a.Sim.MaxBodies = 1
	if GetPreset("capped").Sim.MaxBodies != 40 {
		t.Error("presets must return fresh configs")
	}
}
