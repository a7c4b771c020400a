// Package models implements the reaction schemes of the aggregation engine.
//
// Each [Kind] resolves its [Params] into [Rates] once and then enumerates
// reaction channels for any population through the kinetics.Model
// interface. Secondary nucleation and excluded-volume crowding are options
// of the two families, selected by kind.
package models

import (
	"fmt"

	"github.com/san-kum/polysim/internal/kinetics"
)

// New resolves p for an initial population of n monomers and returns the
// matching reaction model.
func New(p Params, n int) (kinetics.Model, Rates, error) {
	r, err := Resolve(p, n)
	if err != nil {
		return nil, Rates{}, err
	}
	switch r.Kind {
	case BeckerDoring, BeckerDoringSecondary, BeckerDoringCrowding:
		return NewBeckerDoring(r), r, nil
	case Smoluchowski, SmoluchowskiSecondary, SmoluchowskiCrowding:
		return NewSmoluchowski(r), r, nil
	default:
		return nil, Rates{}, fmt.Errorf("%w: unknown model kind %s", kinetics.ErrInvalidConfig, r.Kind)
	}
}
