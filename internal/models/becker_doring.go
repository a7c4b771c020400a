package models

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/polysim/internal/kinetics"
)

// BeckerDoringModel grows polymers one monomer at a time from critical
// nuclei of size Nc. With a non-zero K2 (secondary kinds) existing polymer
// mass also catalyses nucleation.
type BeckerDoringModel struct {
	Rates
}

func NewBeckerDoring(r Rates) *BeckerDoringModel {
	return &BeckerDoringModel{Rates: r}
}

func (m *BeckerDoringModel) Propensities(p kinetics.Population, _ *rand.Rand, buf []kinetics.Channel) []kinetics.Channel {
	buf = m.nucleation(p, buf)
	return m.growth(p, buf)
}

// nucleation appends primary and, when enabled, secondary nucleation.
func (m *BeckerDoringModel) nucleation(p kinetics.Population, buf []kinetics.Channel) []kinetics.Channel {
	ff := fallingFactorial(p.Count(1), m.Nc)
	if ff == 0 {
		return buf
	}
	deltas := []kinetics.Delta{{Species: 1, Change: -m.Nc}, {Species: m.Nc, Change: 1}}

	if m.Kn > 0 {
		buf = append(buf, kinetics.Channel{
			Propensity: m.Alpha * m.Kn * ff / math.Pow(m.Volume, float64(m.Nc-1)),
			Reaction:   kinetics.Reaction{Kind: kinetics.Nucleation, Deltas: deltas},
		})
	}

	if m.Kind.Secondary() && m.K2 > 0 {
		seed := 0
		p.Each(func(id, n int) {
			if id >= m.N2 {
				seed += id * n
			}
		})
		if seed > 0 {
			buf = append(buf, kinetics.Channel{
				Propensity: m.Alpha * m.K2 * ff * float64(seed) / math.Pow(m.Volume, float64(m.Nc)),
				Reaction:   kinetics.Reaction{Kind: kinetics.SecondaryNucleation, Deltas: deltas},
			})
		}
	}
	return buf
}

// growth appends monomer addition and subtraction for every polymer of at
// least nucleus size.
func (m *BeckerDoringModel) growth(p kinetics.Population, buf []kinetics.Channel) []kinetics.Channel {
	n1 := p.Count(1)
	p.Each(func(id, n int) {
		if id < m.Nc {
			return
		}
		if n1 > 0 && m.A > 0 {
			buf = append(buf, kinetics.Channel{
				Propensity: m.Gamma * m.A * float64(n1) * float64(n) / m.Volume,
				Reaction: kinetics.Reaction{Kind: kinetics.Addition, Deltas: []kinetics.Delta{
					{Species: 1, Change: -1}, {Species: id, Change: -1}, {Species: id + 1, Change: 1},
				}},
			})
		}
		if m.B > 0 {
			buf = append(buf, kinetics.Channel{
				Propensity: m.B * float64(n),
				Reaction:   kinetics.Reaction{Kind: kinetics.Subtraction, Deltas: m.subtraction(id)},
			})
		}
	})
	return buf
}

// subtraction removes one monomer from a polymer of size id. A nucleus
// that loses a monomer falls apart completely.
func (m *BeckerDoringModel) subtraction(id int) []kinetics.Delta {
	if id == m.Nc {
		return []kinetics.Delta{{Species: id, Change: -1}, {Species: 1, Change: id}}
	}
	return []kinetics.Delta{{Species: id, Change: -1}, {Species: id - 1, Change: 1}, {Species: 1, Change: 1}}
}

// fallingFactorial returns n(n-1)...(n-k+1), zero when n < k.
func fallingFactorial(n, k int) float64 {
	if n < k {
		return 0
	}
	f := 1.0
	for i := 0; i < k; i++ {
		f *= float64(n - i)
	}
	return f
}
