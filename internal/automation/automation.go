package automation

import (
	"context"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dropsim/internal/analysis"
	"github.com/san-kum/dropsim/internal/config"
	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/experiment"
	"github.com/san-kum/dropsim/internal/storage"
)

// Scenario defines a scripted sequence of headless runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario. Zero values keep what the
// preset says.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Preset  string             `yaml:"preset"`
	Ticks   int                `yaml:"ticks"`
	Bodies  int                `yaml:"bodies"`
	Gravity string             `yaml:"gravity"`
	Seed    int64              `yaml:"seed"`
	Params  map[string]float64 `yaml:"params"`
	SaveAs  string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps: %w", path, dynamo.ErrInvalidConfig)
	}
	return &scenario, nil
}

// Config resolves the step against its preset.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg, err := experiment.Resolve(s.Preset, "")
	if err != nil {
		return nil, err
	}
	return cfg, s.Apply(cfg)
}

// Apply writes the step's overrides onto cfg and validates the result.
func (s ScenarioStep) Apply(cfg *config.Config) error {
	if s.Ticks > 0 {
		cfg.Sim.Ticks = s.Ticks
	}
	if s.Bodies > 0 {
		cfg.Spawn.Count = s.Bodies
	}
	if s.Gravity != "" {
		cfg.Sim.Gravity = s.Gravity
	}
	if s.Seed != 0 {
		cfg.Sim.Seed = s.Seed
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

type StepResult struct {
	Name   string
	RunID  string // empty unless the step was saved
	Result *dynamo.Result
}

// RunScenario executes all steps in order. Steps with save_as are written
// to st when it is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, logger *log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", scenario.Name, i+1)
		}
		logger.Printf("[scenario] step %d/%d: %s", i+1, len(scenario.Steps), name)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(name, cfg)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Result: result}
		if step.SaveAs != "" && st != nil {
			if sr.RunID, err = st.Save(step.SaveAs, cfg, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs one configuration across evenly spaced values of a
// single physics parameter. Base wins over Preset when both are set.
type ParameterSweep struct {
	Base      *config.Config
	Preset    string
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Ticks     int
	Bodies    int
	Seed      int64
}

func (s *ParameterSweep) base() (*config.Config, error) {
	if s.Base == nil {
		return experiment.Resolve(s.Preset, "")
	}
	c := *s.Base
	return &c, nil
}

// SweepResult holds the summary of one sweep point
type SweepResult struct {
	ParamValue  float64
	PeakEnergy  float64
	FinalStable float64
	SettleTime  float64 // -1 when the run never settled
	Impacts     int
}

// RunSweep executes a parameter sweep. Every point uses the same seed so
// only the parameter differs.
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *log.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d: %w", sweep.NumSteps, dynamo.ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.Default()
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		step := ScenarioStep{
			Ticks:  sweep.Ticks,
			Bodies: sweep.Bodies,
			Seed:   sweep.Seed,
			Params: map[string]float64{sweep.ParamName: paramVal},
		}
		cfg, err := sweep.base()
		if err != nil {
			return results, err
		}
		if err := step.Apply(cfg); err != nil {
			return results, err
		}

		exp := experiment.New("sweep", cfg)
		if err := exp.Setup(); err != nil {
			return results, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}

		report := analysis.Analyze(result.Frames, float64(cfg.Sim.TickRate))
		results = append(results, SweepResult{
			ParamValue:  paramVal,
			PeakEnergy:  report.PeakEnergy,
			FinalStable: result.Final.StableFraction(),
			SettleTime:  report.SettleTime,
			Impacts:     report.Impacts,
		})

		logger.Printf("[sweep] %d/%d: %s=%.4f", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}
