package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/polysim/internal/config"
	"github.com/san-kum/polysim/internal/experiment"
	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/models"
	"github.com/san-kum/polysim/internal/sim"
)

// Objective reduces an ensemble to the scalar a sweep optimizes.
type Objective string

const (
	FinalLength Objective = "final_length"
	FinalMass   Objective = "final_mass"
	FinalNumber Objective = "final_number"
)

func ParseObjective(s string) (Objective, error) {
	switch o := Objective(strings.ToLower(strings.TrimSpace(s))); o {
	case FinalLength, FinalMass, FinalNumber:
		return o, nil
	default:
		return "", kinetics.Invalidf("unknown objective %q (final_length, final_mass, final_number)", s)
	}
}

// Evaluate reads the objective from the last moments bin.
func (o Objective) Evaluate(res *sim.EnsembleResult) float64 {
	if len(res.Moments) == 0 {
		return math.NaN()
	}
	last := res.Moments[len(res.Moments)-1]
	switch o {
	case FinalMass:
		return last.Mass
	case FinalNumber:
		return last.Number
	default:
		return last.Length
	}
}

// Parameters lists the names Apply understands.
func Parameters() []string {
	names := make([]string, 0, len(rateFields)+2)
	for name := range rateFields {
		names = append(names, name)
	}
	names = append(names, "nc", "n2")
	sort.Strings(names)
	return names
}

var rateFields = map[string]func(p *models.Params) **float64{
	"a":         func(p *models.Params) **float64 { return &p.A },
	"b":         func(p *models.Params) **float64 { return &p.B },
	"kn":        func(p *models.Params) **float64 { return &p.Kn },
	"ka":        func(p *models.Params) **float64 { return &p.Ka },
	"kb":        func(p *models.Params) **float64 { return &p.Kb },
	"k2":        func(p *models.Params) **float64 { return &p.K2 },
	"kd":        func(p *models.Params) **float64 { return &p.Kd },
	"co":        func(p *models.Params) **float64 { return &p.Co },
	"phi":       func(p *models.Params) **float64 { return &p.Crowding.Phi },
	"r_monomer": func(p *models.Params) **float64 { return &p.Crowding.RMonomer },
	"r_crowder": func(p *models.Params) **float64 { return &p.Crowding.RCrowder },
}

// Apply returns a copy of base with the named parameters overridden.
func Apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	for name, v := range params {
		switch name {
		case "nc", "n2":
			if v != math.Trunc(v) {
				return nil, kinetics.Invalidf("%s must be an integer, got %g", name, v)
			}
			if name == "nc" {
				cfg.Nc = models.I(int(v))
			} else {
				cfg.N2 = models.I(int(v))
			}
		default:
			field, ok := rateFields[name]
			if !ok {
				return nil, kinetics.Invalidf("unknown parameter %q", name)
			}
			*field(&cfg.Params) = models.F(v)
		}
	}
	return cfg, nil
}

// ParseRange reads either a comma-separated list ("0.1,0.5,1") or
// start:stop:count ("0.1:1:4", evenly spaced, both ends included).
func ParseRange(s string) ([]float64, error) {
	if parts := strings.Split(s, ":"); len(parts) == 3 {
		start, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		stop, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		count, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil || count < 1 {
			return nil, kinetics.Invalidf("bad range %q, want start:stop:count", s)
		}
		if count == 1 {
			return []float64{start}, nil
		}
		out := make([]float64, count)
		for i := range out {
			out[i] = start + (stop-start)*float64(i)/float64(count-1)
		}
		return out, nil
	}

	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, kinetics.Invalidf("bad value %q in range %q", field, s)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, kinetics.Invalidf("empty range %q", s)
	}
	return out, nil
}

// Sweep runs one ensemble per grid point of g, derived from base, and
// scores it with objective. tune may adjust each ensemble's settings
// (logger, workers) before it runs.
func Sweep(ctx context.Context, base *config.Config, g *GridSearch, objective Objective, tune func(*sim.EnsembleConfig)) (*SearchResult, error) {
	return g.Search(ctx, func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg, err := Apply(base, params)
		if err != nil {
			return 0, err
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(nil); err != nil {
			return 0, err
		}
		exp.Tune(tune)
		res, err := exp.Run(ctx)
		if err != nil {
			return 0, fmt.Errorf("%v: %w", params, err)
		}
		return objective.Evaluate(res), nil
	})
}
