package sim

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/san-kum/polysim/internal/kinetics"
)

// dimerModel is a reversible 1+1 <-> 2 scheme.
type dimerModel struct{}

func (dimerModel) Propensities(p kinetics.Population, _ *rand.Rand, buf []kinetics.Channel) []kinetics.Channel {
	n1, n2 := p.Count(1), p.Count(2)
	if n1 >= 2 {
		buf = append(buf, kinetics.Channel{
			Propensity: 0.5 * float64(n1*(n1-1)),
			Reaction:   kinetics.Reaction{Kind: kinetics.Nucleation, Deltas: []kinetics.Delta{{Species: 1, Change: -2}, {Species: 2, Change: 1}}},
		})
	}
	if n2 > 0 {
		buf = append(buf, kinetics.Channel{
			Propensity: float64(n2),
			Reaction:   kinetics.Reaction{Kind: kinetics.Subtraction, Deltas: []kinetics.Delta{{Species: 2, Change: -1}, {Species: 1, Change: 2}}},
		})
	}
	return buf
}

type fixedModel struct {
	channels []kinetics.Channel
}

func (m fixedModel) Propensities(_ kinetics.Population, _ *rand.Rand, buf []kinetics.Channel) []kinetics.Channel {
	return append(buf, m.channels...)
}

func monomers(t *testing.T, n int) kinetics.Population {
	t.Helper()
	p, err := kinetics.NewPopulation(n)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	return p
}

func TestSimulatorRun(t *testing.T) {
	s := New(dimerModel{})
	cfg := DefaultConfig()
	cfg.TStop = 2
	cfg.Seed = 7

	x0 := monomers(t, 50)
	traj, err := s.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if traj.Times[0] != 0 {
		t.Errorf("expected first time 0, got %f", traj.Times[0])
	}
	if traj.Last().Time < cfg.TStop {
		t.Errorf("run stopped at %f before tstop %f", traj.Last().Time, cfg.TStop)
	}
	if traj.Len() != traj.StepsTaken+1 {
		t.Errorf("expected %d samples, got %d", traj.StepsTaken+1, traj.Len())
	}
	for i := 1; i < traj.Len(); i++ {
		if traj.Times[i] <= traj.Times[i-1] {
			t.Fatalf("times not increasing at %d: %f <= %f", i, traj.Times[i], traj.Times[i-1])
		}
		if traj.States[i].Mass() != 50 {
			t.Fatalf("mass changed at step %d: %d", i, traj.States[i].Mass())
		}
	}
	if x0.Count(1) != 50 || x0.Len() != 1 {
		t.Errorf("initial population modified: %s", x0)
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TStop = 1
	cfg.Seed = 42

	a, err := New(dimerModel{}).Run(context.Background(), monomers(t, 30), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(dimerModel{}).Run(context.Background(), monomers(t, 30), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Times {
		if a.Times[i] != b.Times[i] || a.States[i].String() != b.States[i].String() {
			t.Fatalf("trajectories diverge at %d", i)
		}
	}
}

func TestSimulatorStepBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TStop = 1e12
	cfg.MaxSteps = 5

	traj, err := New(dimerModel{}).Run(context.Background(), monomers(t, 20), cfg)
	if !errors.Is(err, kinetics.ErrStepBudget) {
		t.Fatalf("expected step budget error, got %v", err)
	}
	var budget *BudgetError
	if !errors.As(err, &budget) || budget.Steps != 5 {
		t.Errorf("expected budget error after 5 steps, got %v", err)
	}
	if traj.StepsTaken != 5 {
		t.Errorf("expected 5 steps recorded, got %d", traj.StepsTaken)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dimerModel{}).Run(ctx, monomers(t, 20), DefaultConfig())
	if !errors.Is(err, kinetics.ErrCanceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestSimulatorErrors(t *testing.T) {
	join := kinetics.Reaction{Kind: kinetics.Nucleation, Deltas: []kinetics.Delta{{Species: 1, Change: -2}, {Species: 2, Change: 1}}}
	leak := kinetics.Reaction{Kind: kinetics.Subtraction, Deltas: []kinetics.Delta{{Species: 1, Change: -1}}}

	tests := []struct {
		name  string
		model kinetics.Model
		want  error
	}{
		{"empty", fixedModel{}, kinetics.ErrNoReaction},
		{"zero", fixedModel{[]kinetics.Channel{{Propensity: 0, Reaction: join}}}, kinetics.ErrNoReaction},
		{"negative", fixedModel{[]kinetics.Channel{{Propensity: -1, Reaction: join}}}, kinetics.ErrNegativePropensity},
		{"mass", fixedModel{[]kinetics.Channel{{Propensity: 1, Reaction: leak}}}, errMassChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.model).Run(context.Background(), monomers(t, 10), DefaultConfig())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var simErr *kinetics.SimulationError
			if !errors.As(err, &simErr) {
				t.Fatalf("expected SimulationError, got %T", err)
			}
			if simErr.Step != 0 || simErr.State.Count(1) != 10 {
				t.Errorf("unexpected error context %+v", simErr)
			}
		})
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	_, err := New(dimerModel{}).Run(context.Background(), monomers(t, 10), Config{})
	if !errors.Is(err, kinetics.ErrInvalidConfig) {
		t.Errorf("expected invalid config, got %v", err)
	}
	_, err = New(dimerModel{}).Run(context.Background(), kinetics.Population{}, DefaultConfig())
	if !errors.Is(err, kinetics.ErrInvalidConfig) {
		t.Errorf("expected invalid config for empty population, got %v", err)
	}
}

func TestRunWithCallbackStopsEarly(t *testing.T) {
	calls := 0
	err := New(dimerModel{}).RunWithCallback(context.Background(), monomers(t, 20), DefaultConfig(), func(kinetics.Sample) bool {
		calls++
		return calls < 3
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 callbacks, got %d", calls)
	}
}

type countingMetric struct {
	n int
}

func (m *countingMetric) Name() string  { return "events" }
func (m *countingMetric) Value() float64 { return float64(m.n) }
func (m *countingMetric) Reset()         { m.n = 0 }

func (m *countingMetric) Observe(kinetics.Population, kinetics.Reaction, float64) {
	m.n++
}

func TestSimulatorMetrics(t *testing.T) {
	s := New(dimerModel{})
	s.AddMetric(&countingMetric{})

	traj, err := s.Run(context.Background(), monomers(t, 20), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := traj.Metrics["events"]; got != float64(traj.StepsTaken) {
		t.Errorf("expected %d events, got %f", traj.StepsTaken, got)
	}
}

func TestStepper(t *testing.T) {
	st := NewStepper(dimerModel{}, rand.New(rand.NewPCG(1, 2)))
	p := monomers(t, 10)

	next, dt, r, err := st.Step(p)
	if err != nil {
		t.Fatal(err)
	}
	if !(dt > 0) {
		t.Errorf("expected positive dt, got %f", dt)
	}
	if r.Kind != kinetics.Nucleation {
		t.Errorf("only nucleation is possible, got %s", r.Kind)
	}
	if next.Count(1) != 8 || next.Count(2) != 1 {
		t.Errorf("unexpected state %s", next)
	}
	if p.Count(1) != 10 {
		t.Errorf("input modified: %s", p)
	}
}

// seqSource replays fixed words, then repeats the last one.
type seqSource struct {
	words []uint64
	i     int
}

func (s *seqSource) Uint64() uint64 {
	w := s.words[s.i]
	if s.i < len(s.words)-1 {
		s.i++
	}
	return w
}

func TestStepperWaitingTimeAlwaysPositive(t *testing.T) {
	// second draw is exactly 0, which would give a zero waiting time
	src := &seqSource{words: []uint64{1 << 52, 0, 1 << 51, 1 << 50}}
	st := NewStepper(dimerModel{}, rand.New(src))

	_, dt, _, err := st.Step(monomers(t, 4))
	if err != nil {
		t.Fatal(err)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		t.Errorf("expected positive finite dt, got %g", dt)
	}
	if src.i != 3 {
		t.Errorf("expected the zero draw to be replaced, consumed %d words", src.i)
	}
}
