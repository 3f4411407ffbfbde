package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/dropsim/internal/dynamo"
)

// Run starts the simulation and advances it for the given number of ticks
// as fast as possible, recording one frame per tick. Metrics are reset
// first and read into the result at the end.
func (s *Simulation) Run(ctx context.Context, ticks int) (*dynamo.Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d: %w", ticks, dynamo.ErrInvalidConfig)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result := &dynamo.Result{
		Frames:  make([]dynamo.Frame, 0, ticks),
		Metrics: make(map[string]float64),
		Seed:    s.cfg.Seed,
	}

	s.Start()
	start := time.Now()

	var runErr error
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		if !s.Tick() {
			runErr = s.Err()
			break
		}
		result.Frames = append(result.Frames, dynamo.FrameOf(s.Snapshot()))
		result.Ticks++
	}

	result.Elapsed = time.Since(start)
	result.Final = s.Snapshot()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, runErr
}

// Headless returns a RunFunc for ensembles: each call builds a fresh
// simulation from cfg with the given seed, drops spawn bodies at random
// points, and runs for ticks. opts is called once per run so stateful
// metrics and gravity sources are never shared between runs.
func Headless(cfg Config, spawn, ticks int, opts func() []Option) dynamo.RunFunc {
	return func(ctx context.Context, seed int64) (*dynamo.Result, error) {
		c := cfg
		c.Seed = seed

		var o []Option
		if opts != nil {
			o = opts()
		}
		s, err := New(c, o...)
		if err != nil {
			return nil, err
		}
		for i := 0; i < spawn; i++ {
			if _, err := s.SpawnRandom(); err != nil {
				return nil, err
			}
		}
		return s.Run(ctx, ticks)
	}
}
