package analysis

import (
	"math"

	"github.com/san-kum/polysim/internal/kinetics"
)

// Moments holds first and second moments of the polymer observables in
// one time bin, taken across the ensemble of runs.
type Moments struct {
	T       float64 `json:"t"`
	Mass    float64 `json:"mass"`
	Mass2   float64 `json:"mass2"`
	Number  float64 `json:"number"`
	Number2 float64 `json:"number2"`
	Length  float64 `json:"length"`
	Length2 float64 `json:"length2"`
}

func (m Moments) MassSD() float64   { return StdDev(m.Mass, m.Mass2) }
func (m Moments) NumberSD() float64 { return StdDev(m.Number, m.Number2) }
func (m Moments) LengthSD() float64 { return StdDev(m.Length, m.Length2) }

// StdDev returns sqrt(E[X²] - E[X]²), clamping the small negative values
// floating-point cancellation produces.
func StdDev(mean, second float64) float64 {
	v := second - mean*mean
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Sqrt(v)
}

// Sums are per-bin ensemble sums of the observables and their squares.
type Sums struct {
	Mass, Mass2     float64
	Number, Number2 float64
	Length, Length2 float64
}

// Add accumulates one run's observables.
func (s *Sums) Add(o Observables) {
	s.Mass += o.Mass
	s.Mass2 += o.Mass * o.Mass
	s.Number += o.Number
	s.Number2 += o.Number * o.Number
	s.Length += o.Length
	s.Length2 += o.Length * o.Length
}

func (s *Sums) Merge(o Sums) {
	s.Mass += o.Mass
	s.Mass2 += o.Mass2
	s.Number += o.Number
	s.Number2 += o.Number2
	s.Length += o.Length
	s.Length2 += o.Length2
}

// MomentsFromSums divides per-bin sums by the run count.
func MomentsFromSums(times []float64, sums []Sums, runs int) []Moments {
	out := make([]Moments, len(sums))
	if runs < 1 {
		return out
	}
	n := float64(runs)
	for i, s := range sums {
		out[i] = Moments{
			T:       times[i],
			Mass:    s.Mass / n,
			Mass2:   s.Mass2 / n,
			Number:  s.Number / n,
			Number2: s.Number2 / n,
			Length:  s.Length / n,
			Length2: s.Length2 / n,
		}
	}
	return out
}

// EstimateMoments derives moments from an averaged series and its
// per-species variance companion when per-run observables are not
// available, e.g. for series loaded from storage.
//
// Species are treated as independent: Var(M) ≈ Σ id²·Var(n_id) and
// Var(P) ≈ Σ Var(n_id). The length variance uses the first-order delta
// method on M/P.
func EstimateMoments(mean, variance kinetics.Series) []Moments {
	out := make([]Moments, len(mean))
	for i, b := range mean {
		mass := PolymerMass(b, DefaultMinSize, 1)
		number := PolymerNumber(b, 1)
		var varMass, varNumber float64
		if i < len(variance) {
			for _, id := range speciesIDs(variance[i]) {
				v := variance[i].Species[id]
				if id < DefaultMinSize || v <= 0 {
					continue
				}
				varMass += float64(id*id) * v
				varNumber += v
			}
		}
		length := MeanLength(mass, number)
		varLength := 0.0
		if mass > 0 && number > 0 {
			varLength = length * length * (varMass/(mass*mass) + varNumber/(number*number))
		}
		out[i] = Moments{
			T:       b.Time,
			Mass:    mass,
			Mass2:   mass*mass + varMass,
			Number:  number,
			Number2: number*number + varNumber,
			Length:  length,
			Length2: length*length + varLength,
		}
	}
	return out
}
