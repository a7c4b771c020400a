// Package kinetics provides the core primitives for stochastic aggregation
// kinetics.
//
// The package defines the data types shared by every layer of the engine:
//
//   - [Population]: sparse ordered map from aggregate size to count
//   - [Reaction]: a reaction kind plus the population deltas it applies
//   - [Channel]: a reaction paired with its current propensity
//   - [Model]: interface enumerating the channels available in a state
//   - [Series]: populations averaged onto a fixed time grid
//
// # Example
//
//	p, _ := kinetics.NewPopulation(100)
//	channels := model.Propensities(p, rng, nil)
//
// # Invariants
//
// Counts are never negative and a species whose count reaches zero is
// removed. Every reaction defined by the models conserves total mass.
package kinetics
