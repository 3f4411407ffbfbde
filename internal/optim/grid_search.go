package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/dropsim/internal/experiment"
)

// GridSearch tries every combination of parameter values and keeps the one
// with the lowest metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Score maps a metric to a value to minimise. Negative metrics such as an
// unsettled settle time count as infinitely bad.
func Score(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		trial := Trial{Params: params, Value: math.Inf(1)}
		defer func() { trials = append(trials, trial) }()

		exp, err := buildExperiment(params)
		if err == nil {
			err = exp.Setup()
		}
		if err != nil {
			trial.Err = err
			return nil
		}
		result, err := exp.Run(ctx)
		if err != nil {
			trial.Err = err
			return ctx.Err()
		}
		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("unknown metric %q", metricName)
		}
		trial.Value = Score(val)
		if trial.Value < best || bestParams == nil {
			best, bestParams = trial.Value, params
		}
		return nil
	})
	return bestParams, best, trials, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}
