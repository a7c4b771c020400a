package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/polysim/internal/kinetics"
)

// Stepper advances a population by one Gillespie direct-method event.
// It keeps scratch buffers and is not safe for concurrent use.
type Stepper struct {
	model    kinetics.Model
	rng      *rand.Rand
	channels []kinetics.Channel
	props    []float64
	cum      []float64
}

func NewStepper(model kinetics.Model, rng *rand.Rand) *Stepper {
	return &Stepper{model: model, rng: rng}
}

// Step selects the next reaction for p and returns the new population,
// the waiting time and the reaction that fired. p is not modified.
func (s *Stepper) Step(p kinetics.Population) (kinetics.Population, float64, kinetics.Reaction, error) {
	s.channels = s.model.Propensities(p, s.rng, s.channels[:0])
	n := len(s.channels)
	if n == 0 {
		return kinetics.Population{}, 0, kinetics.Reaction{}, fmt.Errorf("%w: empty propensity set", kinetics.ErrNoReaction)
	}

	s.props = grow(s.props, n)
	s.cum = grow(s.cum, n)
	for i, c := range s.channels {
		if c.Propensity < 0 || math.IsNaN(c.Propensity) || math.IsInf(c.Propensity, 0) {
			return kinetics.Population{}, 0, kinetics.Reaction{}, fmt.Errorf("%w: %g for %s", kinetics.ErrNegativePropensity, c.Propensity, c.Reaction)
		}
		s.props[i] = c.Propensity
	}
	floats.CumSum(s.cum, s.props)
	total := s.cum[n-1]
	if !(total > 0) || math.IsInf(total, 0) {
		return kinetics.Population{}, 0, kinetics.Reaction{}, fmt.Errorf("%w: total propensity %g over %d channels", kinetics.ErrNoReaction, total, n)
	}

	u1 := s.rng.Float64()
	dt := math.Log(1/s.openUniform()) / total

	threshold := u1 * total
	idx := -1
	for i, c := range s.cum {
		if c > threshold {
			idx = i
			break
		}
	}
	if idx < 0 {
		return kinetics.Population{}, 0, kinetics.Reaction{}, fmt.Errorf("%w: no channel above threshold %g of %g", kinetics.ErrNoReaction, threshold, total)
	}

	r := s.channels[idx].Reaction
	next := p.Clone()
	if err := next.Apply(r.Deltas); err != nil {
		return kinetics.Population{}, 0, r, fmt.Errorf("applying %s: %w", r, err)
	}
	return next, dt, r, nil
}

// openUniform draws from (0, 1) so every waiting time is positive and
// finite.
func (s *Stepper) openUniform() float64 {
	for {
		if u := s.rng.Float64(); u > 0 {
			return u
		}
	}
}

func grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
