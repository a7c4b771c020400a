package sim

import "github.com/san-kum/polysim/internal/kinetics"

// gridSampler resamples a stream of samples onto a time grid, carrying
// the last state at or before each grid point forward.
type gridSampler struct {
	grid    []float64
	out     []kinetics.Population
	last    kinetics.Population
	started bool
}

func newGridSampler(grid []float64) *gridSampler {
	return &gridSampler{grid: grid, out: make([]kinetics.Population, 0, len(grid))}
}

// observe records a sample. Samples must arrive in increasing time order.
func (g *gridSampler) observe(s kinetics.Sample) {
	if g.started {
		for len(g.out) < len(g.grid) && g.grid[len(g.out)] < s.Time {
			g.out = append(g.out, g.last)
		}
	}
	g.last = s.State
	g.started = true
}

// finish fills the remaining grid points with the last state.
func (g *gridSampler) finish() []kinetics.Population {
	for g.started && len(g.out) < len(g.grid) {
		g.out = append(g.out, g.last)
	}
	return g.out
}

// Resample maps a recorded trajectory onto grid using last-value-carried
// forward. The result has one population per grid point.
func Resample(traj *Trajectory, grid []float64) []kinetics.Population {
	g := newGridSampler(grid)
	for i := range traj.Times {
		g.observe(kinetics.Sample{Time: traj.Times[i], State: traj.States[i]})
	}
	return g.finish()
}

// ResampleSeries is Resample returning a Series of raw counts.
func ResampleSeries(traj *Trajectory, grid []float64) kinetics.Series {
	states := Resample(traj, grid)
	out := make(kinetics.Series, len(states))
	for i, p := range states {
		out[i] = kinetics.BinOf(grid[i], p)
	}
	return out
}
