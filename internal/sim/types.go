package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/polysim/internal/kinetics"
)

const (
	DefaultBins     = 100
	DefaultMaxSteps = 50_000_000

	// contextCheckInterval is the number of steps between context polls.
	contextCheckInterval = 256
)

// Config controls a single trajectory.
type Config struct {
	TStop         float64
	Seed          uint64
	MaxSteps      int           // 0 means DefaultMaxSteps, negative means unbounded
	MaxWall       time.Duration // 0 means unbounded
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		TStop:         1.0,
		MaxSteps:      DefaultMaxSteps,
		ValidateState: true,
	}
}

func (c Config) validate() error {
	if !(c.TStop > 0) {
		return kinetics.Invalidf("tstop must be positive, got %g", c.TStop)
	}
	if c.MaxWall < 0 {
		return kinetics.Invalidf("max wall time must not be negative, got %s", c.MaxWall)
	}
	return nil
}

func (c Config) maxSteps() int {
	switch {
	case c.MaxSteps == 0:
		return DefaultMaxSteps
	case c.MaxSteps < 0:
		return int(^uint(0) >> 1)
	default:
		return c.MaxSteps
	}
}

// Trajectory is the full event record of one run. Times are strictly
// increasing, start at 0 and end at or beyond the stop time.
type Trajectory struct {
	Times      []float64             `json:"times"`
	States     []kinetics.Population `json:"states"`
	StepsTaken int                   `json:"steps"`
	Metrics    map[string]float64    `json:"metrics,omitempty"`
}

func (t *Trajectory) Len() int { return len(t.Times) }

// Last returns the final sample of the trajectory.
func (t *Trajectory) Last() kinetics.Sample {
	n := len(t.Times) - 1
	return kinetics.Sample{Time: t.Times[n], State: t.States[n]}
}

func (t *Trajectory) append(s kinetics.Sample) {
	t.Times = append(t.Times, s.Time)
	t.States = append(t.States, s.State)
}

// BudgetError reports how far a run got before its step or time budget ran out.
type BudgetError struct {
	Steps int
	Time  float64
	TStop float64
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("did not reach t_stop=%g: stopped at t=%g after %d steps", e.TStop, e.Time, e.Steps)
}

func (e *BudgetError) Unwrap() error { return kinetics.ErrStepBudget }
