package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/polysim/internal/kinetics"
)

// DefaultMinSize is the smallest aggregate counted as polymer mass.
const DefaultMinSize = 2

// PolymerMass returns Σ (id·count)^order over species id >= min.
// order is 1 for the mass itself; higher orders feed second moments.
func PolymerMass(b kinetics.Bin, min, order int) float64 {
	ids := speciesIDs(b)
	terms := make([]float64, 0, len(ids))
	for _, id := range ids {
		if id < min {
			continue
		}
		terms = append(terms, pow(float64(id)*b.Species[id], order))
	}
	return floats.Sum(terms)
}

// PolymerNumber returns Σ count^order over species id > 1.
func PolymerNumber(b kinetics.Bin, order int) float64 {
	ids := speciesIDs(b)
	terms := make([]float64, 0, len(ids))
	for _, id := range ids {
		if id <= 1 {
			continue
		}
		terms = append(terms, pow(b.Species[id], order))
	}
	return floats.Sum(terms)
}

// speciesIDs returns the bin's species in ascending order so sums are
// reproducible.
func speciesIDs(b kinetics.Bin) []int {
	ids := make([]int, 0, len(b.Species))
	for id := range b.Species {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// MeanLength returns mass/number, or 0 when there are no polymers.
func MeanLength(mass, number float64) float64 {
	if number == 0 {
		return 0
	}
	return mass / number
}

// Observables are the polymer aggregates of a single population.
type Observables struct {
	Mass   float64
	Number float64
	Length float64
}

// Observe computes polymer mass, number and mean length of p directly,
// without building a bin.
func Observe(p kinetics.Population) Observables {
	var o Observables
	p.Each(func(id, n int) {
		if id < DefaultMinSize {
			return
		}
		o.Mass += float64(id * n)
		o.Number += float64(n)
	})
	o.Length = MeanLength(o.Mass, o.Number)
	return o
}

// MassSeries returns the polymer mass of every bin.
func MassSeries(s kinetics.Series) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = PolymerMass(b, DefaultMinSize, 1)
	}
	return out
}

// NumberSeries returns the polymer number of every bin.
func NumberSeries(s kinetics.Series) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = PolymerNumber(b, 1)
	}
	return out
}

// LengthSeries returns mass/number for every bin.
func LengthSeries(s kinetics.Series) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = MeanLength(PolymerMass(b, DefaultMinSize, 1), PolymerNumber(b, 1))
	}
	return out
}

// TotalMass returns Σ id·count over every species of the bin, monomers included.
func TotalMass(b kinetics.Bin) float64 {
	return PolymerMass(b, 1, 1)
}

func pow(x float64, order int) float64 {
	switch order {
	case 1:
		return x
	case 2:
		return x * x
	default:
		return math.Pow(x, float64(order))
	}
}
