package kinetics

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a nonsensical or incomplete parameter set.
	ErrInvalidConfig = errors.New("kinetics: invalid configuration")

	// ErrNegativePopulation indicates a reaction drove a species count below zero.
	ErrNegativePopulation = errors.New("kinetics: negative population")

	// ErrNegativePropensity indicates a model emitted a negative or non-finite rate.
	ErrNegativePropensity = errors.New("kinetics: negative or non-finite propensity")

	// ErrNoReaction indicates an empty or zero-sum propensity set.
	ErrNoReaction = errors.New("kinetics: no reaction can fire")

	// ErrStepBudget indicates the run did not reach t_stop within its step or time budget.
	ErrStepBudget = errors.New("kinetics: step budget exhausted before t_stop")

	// ErrCanceled indicates the simulation was interrupted by its context.
	ErrCanceled = errors.New("kinetics: simulation canceled")
)

// SimulationError wraps an error with the run context needed to diagnose it.
type SimulationError struct {
	Run     int
	Step    int
	Time    float64
	State   Population
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("run %d, step %d (t=%.6g, state=%s): %v", e.Run, e.Step, e.Time, e.State, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// Invalidf returns an ErrInvalidConfig carrying a formatted reason.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
