// Package metrics provides per-step observers that summarize a run.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/polysim/internal/kinetics"
)

type factory func() kinetics.Metric

var registry = map[string]factory{
	"mass_drift":        func() kinetics.Metric { return NewMassDrift() },
	"largest_aggregate": func() kinetics.Metric { return NewLargestAggregate() },
}

func init() {
	for _, kind := range kinetics.ReactionKinds() {
		k := kind
		registry[k.String()+"_events"] = func() kinetics.Metric { return NewReactionCount(k) }
	}
}

// Names lists every registered metric.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the metric set recorded when none is requested.
func Default() []kinetics.Metric {
	out := []kinetics.Metric{NewMassDrift(), NewLargestAggregate()}
	for _, kind := range kinetics.ReactionKinds() {
		out = append(out, NewReactionCount(kind))
	}
	return out
}

// Factory returns a constructor building a fresh set of the named
// metrics, for use as sim.EnsembleConfig.Metrics. An empty list selects
// Default.
func Factory(names []string) (func() []kinetics.Metric, error) {
	if len(names) == 0 {
		return Default, nil
	}
	fs := make([]factory, 0, len(names))
	for _, name := range names {
		f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown metric %q (available: %s)", kinetics.ErrInvalidConfig, name, strings.Join(Names(), ", "))
		}
		fs = append(fs, f)
	}
	return func() []kinetics.Metric {
		out := make([]kinetics.Metric, len(fs))
		for i, f := range fs {
			out[i] = f()
		}
		return out
	}, nil
}
