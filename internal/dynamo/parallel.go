package dynamo

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RunFunc executes one independent headless run with the given seed.
type RunFunc func(ctx context.Context, seed int64) (*Result, error)

// Ensemble runs several independent simulations concurrently. Each run owns
// its own bodies and stays single-threaded internally.
type Ensemble struct {
	run       RunFunc
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(run RunFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{run: run, numRuns: numRuns, seedStart: seedStart, workers: runtime.NumCPU()}
}

// Run returns results in seed order. The first failing run cancels the
// context passed to the others.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d: %w", e.numRuns, ErrInvalidConfig)
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			r, err := e.run(ctx, e.seedStart+int64(idx))
			results[idx] = r
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
