package models

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/polysim/internal/kinetics"
)

const DefaultNucleusSize = 2

// Params is the user-supplied rate record. A nil field is unset and is
// filled by the default rules in Resolve; an explicit zero is kept.
type Params struct {
	Kind Kind `yaml:"model" json:"model"`

	A  *float64 `yaml:"a,omitempty" json:"a,omitempty"`
	B  *float64 `yaml:"b,omitempty" json:"b,omitempty"`
	Kn *float64 `yaml:"kn,omitempty" json:"kn,omitempty"`
	Ka *float64 `yaml:"ka,omitempty" json:"ka,omitempty"`
	Kb *float64 `yaml:"kb,omitempty" json:"kb,omitempty"`
	K2 *float64 `yaml:"k2,omitempty" json:"k2,omitempty"`
	Kd *float64 `yaml:"kd,omitempty" json:"kd,omitempty"`
	Co *float64 `yaml:"co,omitempty" json:"co,omitempty"`
	Nc *int     `yaml:"nc,omitempty" json:"nc,omitempty"`
	N2 *int     `yaml:"n2,omitempty" json:"n2,omitempty"`

	Crowding Crowding `yaml:"crowding,omitempty" json:"crowding,omitempty"`
}

// Crowding holds the excluded-volume geometry. Phi is the crowder volume
// fraction; radii share an arbitrary length unit.
type Crowding struct {
	Phi      *float64 `yaml:"phi,omitempty" json:"phi,omitempty"`
	RMonomer *float64 `yaml:"r_monomer,omitempty" json:"r_monomer,omitempty"`
	RCrowder *float64 `yaml:"r_crowder,omitempty" json:"r_crowder,omitempty"`
}

// Rates is the resolved, immutable parameter set of one simulation.
type Rates struct {
	Kind   Kind
	A      float64 // monomer addition
	B      float64 // monomer subtraction
	Kn     float64 // primary nucleation
	Ka     float64 // coagulation
	Kb     float64 // fragmentation
	K2     float64 // secondary nucleation
	Nc     int     // critical nucleus size
	N2     int     // smallest polymer seeding secondary nucleation
	Volume float64 // N / co, 1 when co is unset
	Gamma  float64 // crowding factor on addition
	Alpha  float64 // crowding factor on nucleation
}

// F returns a pointer to v, for filling optional fields.
func F(v float64) *float64 { return &v }

// I returns a pointer to v, for filling optional fields.
func I(v int) *int { return &v }

// Resolve applies the default rules for p.Kind and validates the result.
// n is the initial monomer count, used for the reaction volume.
func Resolve(p Params, n int) (Rates, error) {
	if n < 1 {
		return Rates{}, kinetics.Invalidf("N must be >= 1, got %d", n)
	}
	if p.Kind < 0 || int(p.Kind) >= len(kindNames) {
		return Rates{}, kinetics.Invalidf("unknown model kind %d", int(p.Kind))
	}
	if !p.Kind.Crowded() && (p.Crowding != Crowding{}) {
		return Rates{}, kinetics.Invalidf("crowding geometry given for %s, which has no crowding", p.Kind)
	}
	r := Rates{Kind: p.Kind, Volume: 1, Gamma: 1, Alpha: 1, Nc: DefaultNucleusSize}

	if p.Nc != nil {
		r.Nc = *p.Nc
	}
	if r.Nc < 2 {
		return Rates{}, kinetics.Invalidf("nc must be >= 2, got %d", r.Nc)
	}
	r.N2 = r.Nc
	if p.N2 != nil {
		r.N2 = *p.N2
	}
	if r.N2 < 2 {
		return Rates{}, kinetics.Invalidf("n2 must be >= 2, got %d", r.N2)
	}
	if p.Co != nil {
		if *p.Co <= 0 {
			return Rates{}, kinetics.Invalidf("co must be positive, got %g", *p.Co)
		}
		r.Volume = float64(n) / *p.Co
	}

	if p.Kind.Coagulating() {
		ka, err := required("ka", p.Ka)
		if err != nil {
			return Rates{}, err
		}
		kb, err := required("kb", p.Kb)
		if err != nil {
			return Rates{}, err
		}
		r.Ka, r.Kb = ka, kb
		r.A = orDefault(p.A, ka)
		r.B = orDefault(p.B, orDefault(p.Kd, kb))
	} else {
		a, err := required("a", p.A)
		if err != nil {
			return Rates{}, err
		}
		r.A = a
		b := p.B
		if b == nil {
			b = p.Kd
		}
		if r.B, err = required("b (or kd)", b); err != nil {
			return Rates{}, err
		}
	}
	r.Kn = orDefault(p.Kn, r.A)

	if p.Kind.Secondary() {
		k2, err := required("k2", p.K2)
		if err != nil {
			return Rates{}, err
		}
		r.K2 = k2
	}

	if p.Kind.Crowded() {
		gamma, alpha, err := CrowdingFactors(p.Crowding, r.Nc)
		if err != nil {
			return Rates{}, err
		}
		r.Gamma, r.Alpha = gamma, alpha
	}

	for name, v := range map[string]float64{"a": r.A, "b": r.B, "kn": r.Kn, "ka": r.Ka, "kb": r.Kb, "k2": r.K2} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Rates{}, kinetics.Invalidf("%s must be a non-negative finite rate, got %g", name, v)
		}
	}
	return r, nil
}

func required(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, kinetics.Invalidf("%s is required", name)
	}
	return *v, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Describe returns the resolved constants as sorted "name=value" lines.
func (r Rates) Describe() []string {
	vals := map[string]float64{
		"a": r.A, "b": r.B, "kn": r.Kn, "volume": r.Volume,
		"gamma": r.Gamma, "alpha": r.Alpha,
	}
	if r.Kind.Coagulating() {
		vals["ka"], vals["kb"] = r.Ka, r.Kb
	}
	if r.Kind.Secondary() {
		vals["k2"] = r.K2
	}
	lines := make([]string, 0, len(vals)+2)
	for name, v := range vals {
		lines = append(lines, fmt.Sprintf("%s=%g", name, v))
	}
	lines = append(lines, fmt.Sprintf("nc=%d", r.Nc))
	if r.Kind.Secondary() {
		lines = append(lines, fmt.Sprintf("n2=%d", r.N2))
	}
	sort.Strings(lines)
	return lines
}
