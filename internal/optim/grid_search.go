package optim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/mbsim/internal/analysis"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
)

// Objective scores one parameter assignment; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search evaluates every point of the grid and returns the lowest scoring
// one. Points whose objective fails are skipped; if all fail, the last
// error is returned.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid has %d names but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var lastErr error

	err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, &best, &bestParams, &lastErr)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("empty grid")
		}
		return nil, 0, lastErr
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
	lastErr *error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := objective(ctx, current)
		if err != nil {
			*lastErr = err
			return nil
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, objective, best, bestParams, lastErr); err != nil {
			return err
		}
	}
	return nil
}

// FitParam estimates the temperature or mass that best explains speeds by
// minimizing the KS distance over n evenly spaced values in [lo, hi].
func FitParam(ctx context.Context, speeds []float64, mode dynamo.Mode, lo, hi float64, n int) (param, ks float64, err error) {
	if len(speeds) == 0 {
		return 0, 0, analysis.ErrNoSamples
	}
	if n < 2 || !(hi > lo) {
		return 0, 0, fmt.Errorf("fit grid needs lo < hi and at least 2 points, got [%g, %g] x %d", lo, hi, n)
	}

	name := mode.ParamName()
	grid := NewGridSearch([]string{name}, [][]float64{floats.Span(make([]float64, n), lo, hi)})
	best, ks, err := grid.Search(ctx, func(_ context.Context, p map[string]float64) (float64, error) {
		d, err := physics.NewMaxwell(mode, p[name])
		if err != nil {
			return 0, err
		}
		return analysis.KSDistance(speeds, d), nil
	})
	if err != nil {
		return 0, 0, err
	}
	return best[name], ks, nil
}
