package metrics

import (
	"math"

	"github.com/san-kum/polysim/internal/kinetics"
)

// MassDrift tracks the largest relative deviation of total mass from the
// first observed state. Every model conserves mass, so anything but zero
// points at a broken reaction scheme.
type MassDrift struct {
	name     string
	initial  int
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{
		name: "mass_drift",
	}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(p kinetics.Population, r kinetics.Reaction, t float64) {
	mass := p.Mass()
	if m.samples == 0 {
		// the first observed state is already one reaction in
		m.initial = mass - r.MassChange()
	}
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(float64(mass-m.initial)) / float64(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 {
	return m.maxDrift
}

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

// LargestAggregate records the biggest species id seen during a run.
type LargestAggregate struct {
	name    string
	largest int
}

func NewLargestAggregate() *LargestAggregate {
	return &LargestAggregate{
		name: "largest_aggregate",
	}
}

func (l *LargestAggregate) Name() string { return l.name }

func (l *LargestAggregate) Observe(p kinetics.Population, r kinetics.Reaction, t float64) {
	if id := p.MaxSpecies(); id > l.largest {
		l.largest = id
	}
}

func (l *LargestAggregate) Value() float64 {
	return float64(l.largest)
}

func (l *LargestAggregate) Reset() {
	l.largest = 0
}
