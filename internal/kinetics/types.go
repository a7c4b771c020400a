package kinetics

import (
	"fmt"
	"math/rand/v2"
)

type ReactionKind int

const (
	Nucleation ReactionKind = iota
	Addition
	Subtraction
	Coagulation
	Fragmentation
	SecondaryNucleation
)

var reactionNames = [...]string{
	Nucleation:          "nucleation",
	Addition:            "addition",
	Subtraction:         "subtraction",
	Coagulation:         "coagulation",
	Fragmentation:       "fragmentation",
	SecondaryNucleation: "secondary_nucleation",
}

// ReactionKinds lists every kind in enumeration order.
func ReactionKinds() []ReactionKind {
	return []ReactionKind{Nucleation, Addition, Subtraction, Coagulation, Fragmentation, SecondaryNucleation}
}

func (k ReactionKind) String() string {
	if k < 0 || int(k) >= len(reactionNames) {
		return fmt.Sprintf("reaction(%d)", int(k))
	}
	return reactionNames[k]
}

// Reaction is a state transition: a kind and the deltas it applies.
type Reaction struct {
	Kind   ReactionKind `json:"kind"`
	Deltas []Delta      `json:"deltas"`
}

// MassChange returns Σ species·change, zero for every mass-conserving reaction.
func (r Reaction) MassChange() int {
	m := 0
	for _, d := range r.Deltas {
		m += d.Species * d.Change
	}
	return m
}

func (r Reaction) String() string {
	return fmt.Sprintf("%s%v", r.Kind, r.Deltas)
}

// Channel is a candidate reaction weighted by its current propensity.
type Channel struct {
	Propensity float64
	Reaction   Reaction
}

// Model enumerates the reactions possible in a population.
//
// Propensities appends channels to buf and returns it. It must not modify p.
// rng is only consulted by models that sample part of a reaction (the
// fragmentation split point); it may be nil for models that do not.
type Model interface {
	Propensities(p Population, rng *rand.Rand, buf []Channel) []Channel
}

// Sample is a population observed at a simulation time.
type Sample struct {
	Time  float64
	State Population
}

// Bin is a population sampled (and possibly averaged) at one grid time.
type Bin struct {
	Time    float64         `json:"t"`
	Species map[int]float64 `json:"species"`
}

// Series is a sequence of bins on a shared, increasing time grid.
type Series []Bin

// Times returns the grid times of the series.
func (s Series) Times() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Time
	}
	return out
}

// BinOf converts a population into a bin at time t.
func BinOf(t float64, p Population) Bin {
	b := Bin{Time: t, Species: make(map[int]float64, p.Len())}
	p.Each(func(id, n int) {
		b.Species[id] = float64(n)
	})
	return b
}

// Metric observes every accepted reaction of a run.
type Metric interface {
	Name() string
	Observe(p Population, r Reaction, t float64)
	Value() float64
	Reset()
}

// Observer receives every accepted reaction of a run.
type Observer interface {
	OnStep(p Population, r Reaction, t float64)
}
