package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/polysim/internal/kinetics"
)

func bin(t float64, m map[int]float64) kinetics.Bin {
	return kinetics.Bin{Time: t, Species: m}
}

func TestHistogram(t *testing.T) {
	b := bin(1, map[int]float64{1: 50, 2: 10, 3: 2})
	got := Histogram(b)
	want := []HistogramPoint{{1, 50}, {2, 20}, {3, 6}}

	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHistogramFillsGaps(t *testing.T) {
	got := Histogram(bin(0, map[int]float64{1: 4, 5: 1}))
	if len(got) != 5 {
		t.Fatalf("expected 5 points, got %d", len(got))
	}
	for _, size := range []int{2, 3, 4} {
		if got[size-1].Size != size || got[size-1].Mass != 0 {
			t.Errorf("size %d: got %+v", size, got[size-1])
		}
	}
	if got[4].Mass != 5 {
		t.Errorf("expected mass 5 at size 5, got %f", got[4].Mass)
	}
}

func TestPolymerObservables(t *testing.T) {
	b := bin(0, map[int]float64{1: 50, 2: 10, 3: 2})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"mass", PolymerMass(b, 2, 1), 26},
		{"mass with monomers", PolymerMass(b, 1, 1), 76},
		{"mass order 2", PolymerMass(b, 2, 2), 400 + 36},
		{"number", PolymerNumber(b, 1), 12},
		{"number order 2", PolymerNumber(b, 2), 104},
		{"total", TotalMass(b), 76},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-12 {
				t.Errorf("got %f, want %f", tt.got, tt.want)
			}
		})
	}
}

func TestMeanLengthNoPolymers(t *testing.T) {
	b := bin(0, map[int]float64{1: 100})
	l := MeanLength(PolymerMass(b, 2, 1), PolymerNumber(b, 1))
	if l != 0 {
		t.Errorf("expected 0, got %f", l)
	}

	series := LengthSeries(kinetics.Series{b, bin(1, map[int]float64{1: 90, 5: 2})})
	if series[0] != 0 || series[1] != 5 {
		t.Errorf("unexpected length series %v", series)
	}
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("non-finite length %f", v)
		}
	}
}

func TestObserve(t *testing.T) {
	p, _ := kinetics.PopulationFrom(map[int]int{1: 10, 4: 3, 6: 1})
	o := Observe(p)
	if o.Mass != 18 || o.Number != 4 || o.Length != 4.5 {
		t.Errorf("unexpected observables %+v", o)
	}

	empty := Observe(mustPopulation(t, map[int]int{1: 3}))
	if empty.Length != 0 {
		t.Errorf("expected zero length, got %f", empty.Length)
	}
}

func mustPopulation(t *testing.T, m map[int]int) kinetics.Population {
	t.Helper()
	p, err := kinetics.PopulationFrom(m)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	return p
}

func TestStdDevClamps(t *testing.T) {
	if sd := StdDev(3, 9-1e-12); sd != 0 {
		t.Errorf("expected clamp to 0, got %g", sd)
	}
	if sd := StdDev(2, 5); math.Abs(sd-1) > 1e-12 {
		t.Errorf("expected 1, got %g", sd)
	}
}

func TestMomentsFromSums(t *testing.T) {
	var s Sums
	s.Add(Observables{Mass: 10, Number: 2, Length: 5})
	s.Add(Observables{Mass: 20, Number: 4, Length: 5})

	m := MomentsFromSums([]float64{1}, []Sums{s}, 2)[0]
	if m.Mass != 15 || m.Number != 3 || m.Length != 5 {
		t.Errorf("unexpected means %+v", m)
	}
	if math.Abs(m.MassSD()-5) > 1e-12 {
		t.Errorf("expected mass sd 5, got %f", m.MassSD())
	}
	if m.LengthSD() != 0 {
		t.Errorf("expected zero length sd, got %f", m.LengthSD())
	}
}

func TestEstimateMoments(t *testing.T) {
	mean := kinetics.Series{bin(1, map[int]float64{1: 10, 2: 3, 4: 1})}
	variance := kinetics.Series{bin(1, map[int]float64{2: 1, 4: 0.5})}

	m := EstimateMoments(mean, variance)[0]
	if m.Mass != 10 || m.Number != 4 {
		t.Fatalf("unexpected means %+v", m)
	}
	// Var(M) = 4·1 + 16·0.5
	if math.Abs(m.MassSD()-math.Sqrt(12)) > 1e-9 {
		t.Errorf("mass sd = %f, want %f", m.MassSD(), math.Sqrt(12))
	}
	if math.Abs(m.NumberSD()-math.Sqrt(1.5)) > 1e-9 {
		t.Errorf("number sd = %f, want %f", m.NumberSD(), math.Sqrt(1.5))
	}
}

func TestSpeciesSeries(t *testing.T) {
	s := kinetics.Series{
		bin(1, map[int]float64{1: 10}),
		bin(2, map[int]float64{1: 8, 2: 1}),
		bin(3, map[int]float64{1: 5, 5: 1}),
	}
	ids, values := SpeciesSeries(s)
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 5 {
		t.Fatalf("unexpected ids %v", ids)
	}
	if got := values[2]; got[0] != 0 || got[1] != 1 || got[2] != 0 {
		t.Errorf("species 2 series = %v", got)
	}
	if got := values[5]; len(got) != 3 || got[2] != 1 {
		t.Errorf("species 5 series = %v", got)
	}

	top := Top(values, 2)
	if len(top) != 2 || top[0] != 1 {
		t.Errorf("unexpected top species %v", top)
	}
}
