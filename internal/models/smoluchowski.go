package models

import (
	"math/rand/v2"

	"github.com/san-kum/polysim/internal/kinetics"
)

// SmoluchowskiModel adds pairwise coagulation and fragmentation to the
// Becker-Döring scheme.
//
// Fragmentation of a polymer of size i uses the lumped propensity
// Kb·n_i·(i-3) and a single uniformly drawn split point per enumeration,
// an approximation of summing over every cut. Fragments smaller than the
// nucleus dissolve into monomers.
type SmoluchowskiModel struct {
	BeckerDoringModel
}

func NewSmoluchowski(r Rates) *SmoluchowskiModel {
	return &SmoluchowskiModel{BeckerDoringModel: BeckerDoringModel{Rates: r}}
}

func (m *SmoluchowskiModel) Propensities(p kinetics.Population, rng *rand.Rand, buf []kinetics.Channel) []kinetics.Channel {
	buf = m.nucleation(p, buf)
	buf = m.growth(p, buf)
	buf = m.coagulation(p, buf)
	return m.fragmentation(p, rng, buf)
}

func (m *SmoluchowskiModel) coagulation(p kinetics.Population, buf []kinetics.Channel) []kinetics.Channel {
	if m.Ka <= 0 {
		return buf
	}
	ids := p.Species()
	for x, i := range ids {
		if i < m.Nc {
			continue
		}
		ni := float64(p.Count(i))
		for _, j := range ids[x:] {
			var prop float64
			var deltas []kinetics.Delta
			if i == j {
				if ni < 2 {
					continue
				}
				prop = 0.5 * m.Ka * ni * (ni - 1) / m.Volume
				deltas = []kinetics.Delta{{Species: i, Change: -2}, {Species: 2 * i, Change: 1}}
			} else {
				prop = m.Ka * ni * float64(p.Count(j)) / m.Volume
				deltas = []kinetics.Delta{{Species: i, Change: -1}, {Species: j, Change: -1}, {Species: i + j, Change: 1}}
			}
			buf = append(buf, kinetics.Channel{
				Propensity: prop,
				Reaction:   kinetics.Reaction{Kind: kinetics.Coagulation, Deltas: deltas},
			})
		}
	}
	return buf
}

func (m *SmoluchowskiModel) fragmentation(p kinetics.Population, rng *rand.Rand, buf []kinetics.Channel) []kinetics.Channel {
	if m.Kb <= 0 {
		return buf
	}
	p.Each(func(id, n int) {
		if id <= 3 || id < m.Nc {
			return
		}
		// cut points leave two fragments of at least two units
		var j int
		if rng != nil {
			j = 2 + rng.IntN(id-3)
		} else {
			j = id / 2
		}
		buf = append(buf, kinetics.Channel{
			Propensity: m.Kb * float64(n) * float64(id-3),
			Reaction:   kinetics.Reaction{Kind: kinetics.Fragmentation, Deltas: m.split(id, j)},
		})
	})
	return buf
}

func (m *SmoluchowskiModel) split(id, j int) []kinetics.Delta {
	deltas := []kinetics.Delta{{Species: id, Change: -1}}
	for _, frag := range [2]int{j, id - j} {
		if frag < m.Nc {
			deltas = addDelta(deltas, 1, frag)
		} else {
			deltas = addDelta(deltas, frag, 1)
		}
	}
	return deltas
}

// addDelta merges change into an existing delta for species, or appends one.
func addDelta(deltas []kinetics.Delta, species, change int) []kinetics.Delta {
	for i := range deltas {
		if deltas[i].Species == species {
			deltas[i].Change += change
			return deltas
		}
	}
	return append(deltas, kinetics.Delta{Species: species, Change: change})
}
