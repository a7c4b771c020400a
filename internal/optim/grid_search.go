package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/polysim/internal/kinetics"
)

// Evaluation is one grid point and the objective value it produced.
type Evaluation struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type SearchResult struct {
	Best        map[string]float64
	Value       float64
	Evaluations []Evaluation
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize flips the search to keep the largest objective value.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every point of the cartesian grid in order. Points
// whose evaluation fails are recorded and skipped; a canceled context
// stops the search.
func (g *GridSearch) Search(
	ctx context.Context,
	evaluate func(ctx context.Context, params map[string]float64) (float64, error),
) (*SearchResult, error) {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return nil, kinetics.Invalidf("grid search needs one range per parameter, got %d names and %d ranges", len(g.paramNames), len(g.ranges))
	}
	for i, r := range g.ranges {
		if len(r) == 0 {
			return nil, kinetics.Invalidf("empty range for %s", g.paramNames[i])
		}
	}

	res := &SearchResult{Value: math.Inf(1)}
	if g.maximize {
		res.Value = math.Inf(-1)
	}

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), evaluate, res); err != nil {
		return nil, err
	}
	if res.Best == nil {
		return res, fmt.Errorf("no grid point evaluated successfully out of %d", len(res.Evaluations))
	}
	return res, nil
}

func (g *GridSearch) better(v, best float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if g.maximize {
		return v > best
	}
	return v < best
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	evaluate func(context.Context, map[string]float64) (float64, error),
	res *SearchResult,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", kinetics.ErrCanceled, err)
	}

	if depth == len(g.paramNames) {
		val, err := evaluate(ctx, current)
		if err != nil && ctx.Err() != nil {
			return err
		}
		res.Evaluations = append(res.Evaluations, Evaluation{Params: current, Value: val, Err: err})
		if err == nil && g.better(val, res.Value) {
			res.Value = val
			res.Best = make(map[string]float64)
			for k, v := range current {
				res.Best[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, evaluate, res); err != nil {
			return err
		}
	}
	return nil
}
