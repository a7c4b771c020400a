package sim

import (
	"sync"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/kinetics"
)

// Accumulator sums resampled runs bin by bin. Species counts are summed
// as integers, so the result does not depend on the order runs arrive in.
// It is safe for concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	grid    []float64
	sums    []map[int]int64
	squares []map[int]int64
	scalars []analysis.Sums
	runs    int
}

func NewAccumulator(grid []float64) *Accumulator {
	a := &Accumulator{
		grid:    grid,
		sums:    make([]map[int]int64, len(grid)),
		squares: make([]map[int]int64, len(grid)),
		scalars: make([]analysis.Sums, len(grid)),
	}
	for i := range grid {
		a.sums[i] = make(map[int]int64)
		a.squares[i] = make(map[int]int64)
	}
	return a
}

// Add accumulates one run given as one population per grid point.
func (a *Accumulator) Add(samples []kinetics.Population) error {
	if len(samples) != len(a.grid) {
		return kinetics.Invalidf("run has %d samples for %d bins", len(samples), len(a.grid))
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, p := range samples {
		sums, squares := a.sums[i], a.squares[i]
		p.Each(func(id, n int) {
			c := int64(n)
			sums[id] += c
			squares[id] += c * c
		})
		a.scalars[i].Add(analysis.Observe(p))
	}
	a.runs++
	return nil
}

// Merge folds another accumulator on the same grid into a.
func (a *Accumulator) Merge(b *Accumulator) error {
	if len(a.grid) != len(b.grid) {
		return kinetics.Invalidf("cannot merge %d bins into %d", len(b.grid), len(a.grid))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.grid {
		for id, v := range b.sums[i] {
			a.sums[i][id] += v
		}
		for id, v := range b.squares[i] {
			a.squares[i][id] += v
		}
		a.scalars[i].Merge(b.scalars[i])
	}
	a.runs += b.runs
	return nil
}

func (a *Accumulator) Runs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runs
}

// Mean returns the per-species average over the accumulated runs.
func (a *Accumulator) Mean() kinetics.Series {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := float64(a.runs)
	return a.series(func(i, id int) float64 { return float64(a.sums[i][id]) / n })
}

// Variance returns E[n²] - E[n]² per species, clamped at zero.
func (a *Accumulator) Variance() kinetics.Series {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := float64(a.runs)
	return a.series(func(i, id int) float64 {
		mean := float64(a.sums[i][id]) / n
		v := float64(a.squares[i][id])/n - mean*mean
		if v < 0 {
			return 0
		}
		return v
	})
}

// Moments returns the exact ensemble moments of mass, number and length.
func (a *Accumulator) Moments() []analysis.Moments {
	a.mu.Lock()
	defer a.mu.Unlock()
	return analysis.MomentsFromSums(a.grid, a.scalars, a.runs)
}

func (a *Accumulator) series(value func(i, id int) float64) kinetics.Series {
	out := make(kinetics.Series, len(a.grid))
	for i, t := range a.grid {
		b := kinetics.Bin{Time: t, Species: make(map[int]float64, len(a.sums[i]))}
		if a.runs > 0 {
			for id := range a.sums[i] {
				b.Species[id] = value(i, id)
			}
		}
		out[i] = b
	}
	return out
}
