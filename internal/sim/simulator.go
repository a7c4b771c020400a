package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/san-kum/polysim/internal/kinetics"
)

type Simulator struct {
	model     kinetics.Model
	metrics   []kinetics.Metric
	observers []kinetics.Observer
}

func New(model kinetics.Model) *Simulator {
	return &Simulator{
		model:     model,
		metrics:   make([]kinetics.Metric, 0),
		observers: make([]kinetics.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m kinetics.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o kinetics.Observer) { s.observers = append(s.observers, o) }

// Run simulates one trajectory from x0 until time reaches cfg.TStop and
// records every event.
func (s *Simulator) Run(ctx context.Context, x0 kinetics.Population, cfg Config) (*Trajectory, error) {
	traj := &Trajectory{Metrics: make(map[string]float64)}
	steps, err := s.run(ctx, x0, cfg, 0, func(smp kinetics.Sample) bool {
		traj.append(smp)
		return true
	})
	traj.StepsTaken = steps
	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}
	return traj, err
}

// RunWithCallback streams every sample to fn instead of recording them.
// Returning false from fn ends the run early without error.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 kinetics.Population, cfg Config, fn func(kinetics.Sample) bool) error {
	_, err := s.run(ctx, x0, cfg, 0, fn)
	return err
}

func (s *Simulator) run(ctx context.Context, x0 kinetics.Population, cfg Config, runIdx int, fn func(kinetics.Sample) bool) (int, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if x0.Len() == 0 {
		return 0, kinetics.Invalidf("initial population is empty")
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(runIdx)))
	stepper := NewStepper(s.model, rng)

	x := x0.Clone()
	t := 0.0
	if !fn(kinetics.Sample{Time: t, State: x}) {
		return 0, nil
	}

	maxSteps := cfg.maxSteps()
	var deadline time.Time
	if cfg.MaxWall > 0 {
		deadline = time.Now().Add(cfg.MaxWall)
	}

	step := 0
	for t < cfg.TStop {
		if step%contextCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return step, fmt.Errorf("%w: %w", kinetics.ErrCanceled, ctx.Err())
			default:
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return step, &BudgetError{Steps: step, Time: t, TStop: cfg.TStop}
			}
		}
		if step >= maxSteps {
			return step, &BudgetError{Steps: step, Time: t, TStop: cfg.TStop}
		}

		next, dt, r, err := stepper.Step(x)
		if err != nil {
			return step, &kinetics.SimulationError{Run: runIdx, Step: step, Time: t, State: x, Wrapped: err}
		}
		if cfg.ValidateState {
			if err := checkState(x, next, r); err != nil {
				return step, &kinetics.SimulationError{Run: runIdx, Step: step, Time: t, State: x, Wrapped: err}
			}
		}

		x = next
		t += dt
		step++

		for _, m := range s.metrics {
			m.Observe(x, r, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, r, t)
		}

		if !fn(kinetics.Sample{Time: t, State: x}) {
			return step, nil
		}
	}

	return step, nil
}

var errMassChanged = errors.New("kinetics: reaction changed total mass")

func checkState(prev, next kinetics.Population, r kinetics.Reaction) error {
	if !next.Valid() {
		return fmt.Errorf("%w: inconsistent population after %s", kinetics.ErrNegativePopulation, r)
	}
	if prev.Mass() != next.Mass() {
		return fmt.Errorf("%w: %d -> %d after %s", errMassChanged, prev.Mass(), next.Mass(), r)
	}
	return nil
}
