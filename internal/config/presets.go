package config

import "sort"

type Preset struct {
	Description string
	Apply       func(c *Config)
}

var Presets = map[string]Preset{
	"sandbox": {
		Description: "portrait phone arena, unbounded population",
		Apply:       func(c *Config) {},
	},
	"capped": {
		Description: "keeps the newest 40 bodies",
		Apply: func(c *Config) {
			c.Sim.MaxBodies = 40
		},
	},
	"bouncy": {
		Description: "lively collisions and walls",
		Apply: func(c *Config) {
			c.Physics.BaseRestitution = 0.3
			c.Physics.BounceDamping = 0.9
			c.Physics.RestSpeed = 20
		},
	},
	"pile": {
		Description: "many small bodies dropped gently",
		Apply: func(c *Config) {
			c.Spawn.SizeMin = 10
			c.Spawn.SizeMax = 30
			c.Spawn.Speed = 10
			c.Spawn.Count = 120
		},
	},
	"landscape": {
		Description: "phone turned on its side",
		Apply: func(c *Config) {
			c.Arena.Width, c.Arena.Height = DefaultHeight, DefaultWidth
			c.Arena.TopInset, c.Arena.BottomInset = 20, 40
			c.Spawn.SizeMax = 60
		},
	},
	"classic": {
		Description: "doubled collision impulse of the first toy",
		Apply: func(c *Config) {
			c.Physics.ImpulseScale = 2
		},
	},
	"swirl": {
		Description: "gravity turns a quarter every two seconds",
		Apply: func(c *Config) {
			c.Sim.Gravity = "swirl"
			c.Spawn.Count = 60
		},
	},
}

// GetPreset returns a fresh default config with the preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
