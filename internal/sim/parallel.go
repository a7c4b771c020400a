package sim

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/logging"
)

// EnsembleConfig controls a multi-run simulation.
type EnsembleConfig struct {
	Runs     int
	IndRuns  int // runs kept verbatim, taken from the lowest run indices
	Bins     int
	BinScale BinScale
	Workers  int // 0 means GOMAXPROCS
	Run      Config

	Progress         func(float64)
	ProgressInterval time.Duration

	// Metrics builds a fresh metric set for every run.
	Metrics func() []kinetics.Metric
	Logger  *slog.Logger
}

// EnsembleResult is the plain-data output of an ensemble.
type EnsembleResult struct {
	Runs     int                `json:"runs"`
	Grid     []float64          `json:"grid"`
	Mean     kinetics.Series    `json:"mean"`
	Variance kinetics.Series    `json:"variance"`
	Moments  []analysis.Moments `json:"moments"`
	RawRuns  []*Trajectory      `json:"raw_runs,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Steps    int64              `json:"steps"`
	Elapsed  time.Duration      `json:"elapsed"`
}

// Final returns the last bin of the averaged series.
func (r *EnsembleResult) Final() kinetics.Bin {
	return r.Mean[len(r.Mean)-1]
}

// Ensemble runs independent trajectories of one model from the same
// initial population and averages them onto a shared time grid.
type Ensemble struct {
	model kinetics.Model
	cfg   EnsembleConfig
}

func NewEnsemble(model kinetics.Model, cfg EnsembleConfig) *Ensemble {
	return &Ensemble{model: model, cfg: cfg}
}

func (e *Ensemble) validate() (EnsembleConfig, error) {
	cfg := e.cfg
	if cfg.Runs < 1 {
		return cfg, kinetics.Invalidf("runs must be >= 1, got %d", cfg.Runs)
	}
	if cfg.IndRuns < 0 {
		return cfg, kinetics.Invalidf("ind_runs must not be negative, got %d", cfg.IndRuns)
	}
	if cfg.IndRuns > cfg.Runs {
		cfg.IndRuns = cfg.Runs
	}
	if cfg.Bins == 0 {
		cfg.Bins = DefaultBins
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Workers > cfg.Runs {
		cfg.Workers = cfg.Runs
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return cfg, cfg.Run.validate()
}

// Run executes the ensemble. The first failing run cancels the others and
// its error is returned; no partial averages are produced.
func (e *Ensemble) Run(ctx context.Context, x0 kinetics.Population) (*EnsembleResult, error) {
	cfg, err := e.validate()
	if err != nil {
		return nil, err
	}
	if x0.Len() == 0 {
		return nil, kinetics.Invalidf("initial population is empty")
	}
	grid, err := Grid(cfg.Run.TStop, cfg.Bins, cfg.BinScale)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw := make([]*Trajectory, cfg.IndRuns)
	progress := newProgressReporter(cfg.Progress, cfg.Runs, cfg.ProgressInterval)

	var (
		next       atomic.Int64
		steps      atomic.Int64
		metricsMu  sync.Mutex
		metricSums = make(map[string]float64)
	)

	cfg.Logger.Debug("ensemble started", "runs", cfg.Runs, "bins", cfg.Bins, "workers", cfg.Workers, "tstop", cfg.Run.TStop)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	// each worker pulls run indices and sums into its own accumulator
	partials := make([]*Accumulator, cfg.Workers)
	for w := range partials {
		local := NewAccumulator(grid)
		partials[w] = local
		g.Go(func() error {
			s := New(e.model)
			if cfg.Metrics != nil {
				for _, m := range cfg.Metrics() {
					s.AddMetric(m)
				}
			}

			for {
				idx := int(next.Add(1) - 1)
				if idx >= cfg.Runs || gctx.Err() != nil {
					return nil
				}

				sampler := newGridSampler(grid)
				var traj *Trajectory
				if idx < cfg.IndRuns {
					traj = &Trajectory{Metrics: make(map[string]float64)}
				}

				n, err := s.run(gctx, x0, cfg.Run, idx, func(smp kinetics.Sample) bool {
					sampler.observe(smp)
					if traj != nil {
						traj.append(smp)
					}
					return true
				})
				if err != nil {
					cfg.Logger.Debug("run failed", "run", idx, "steps", n, "err", err)
					return err
				}
				if err := local.Add(sampler.finish()); err != nil {
					return err
				}
				steps.Add(int64(n))

				metricsMu.Lock()
				for _, m := range s.metrics {
					metricSums[m.Name()] += m.Value()
					if traj != nil {
						traj.Metrics[m.Name()] = m.Value()
					}
				}
				metricsMu.Unlock()

				if traj != nil {
					traj.StepsTaken = n
					raw[idx] = traj
				}
				cfg.Logger.Log(gctx, logging.LevelTrace, "run finished", "run", idx, "steps", n)
				progress.completed()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", kinetics.ErrCanceled, err)
	}

	acc := NewAccumulator(grid)
	for _, p := range partials {
		if err := acc.Merge(p); err != nil {
			return nil, err
		}
	}
	progress.finish()

	result := &EnsembleResult{
		Runs:     acc.Runs(),
		Grid:     grid,
		Mean:     acc.Mean(),
		Variance: acc.Variance(),
		Moments:  acc.Moments(),
		RawRuns:  raw,
		Metrics:  make(map[string]float64, len(metricSums)),
		Steps:    steps.Load(),
		Elapsed:  time.Since(start),
	}
	for name, sum := range metricSums {
		result.Metrics[name] = sum / float64(result.Runs)
	}

	cfg.Logger.Debug("ensemble finished", "runs", result.Runs, "steps", result.Steps, "elapsed", result.Elapsed)
	return result, nil
}
