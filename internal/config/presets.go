package config

import (
	"sort"

	"github.com/san-kum/polysim/internal/models"
)

var Presets = map[string]map[string]*Config{
	"becker_doring": {
		"small": {
			Params: models.Params{Kind: models.BeckerDoring, A: models.F(1), B: models.F(1), Nc: models.I(2)},
			N:      100, TStop: 2, Runs: 1, Bins: 100, BinScale: "linear", Seed: 1,
		},
		"ensemble": {
			Params: models.Params{Kind: models.BeckerDoring, A: models.F(1), B: models.F(1), Nc: models.I(2)},
			N:      100, TStop: 2, Runs: 5, Bins: 100, BinScale: "linear", Seed: 1,
		},
		"dilute": {
			Params: models.Params{Kind: models.BeckerDoring, A: models.F(1), B: models.F(0.1), Kn: models.F(1e-3), Co: models.F(10), Nc: models.I(2)},
			N:      2000, TStop: 20, Runs: 20, Bins: 200, BinScale: "log", Seed: 1,
		},
	},
	"smoluchowski": {
		"small": {
			Params: models.Params{Kind: models.Smoluchowski, Ka: models.F(1), Kb: models.F(1), Co: models.F(100), Nc: models.I(3)},
			N:      100, TStop: 2, Runs: 1, IndRuns: 1, Bins: 100, BinScale: "linear", Seed: 1,
		},
		"fragmenting": {
			Params: models.Params{Kind: models.Smoluchowski, Ka: models.F(0.5), Kb: models.F(2), A: models.F(1), Co: models.F(50), Nc: models.I(2)},
			N:      500, TStop: 10, Runs: 10, IndRuns: 1, Bins: 100, BinScale: "linear", Seed: 1,
		},
	},
	"becker_doring_secondary": {
		"autocatalytic": {
			Params: models.Params{Kind: models.BeckerDoringSecondary, A: models.F(1), B: models.F(0.05), Kn: models.F(1e-4), K2: models.F(0.1), Co: models.F(10), Nc: models.I(2), N2: models.I(2)},
			N:      1000, TStop: 10, Runs: 10, Bins: 100, BinScale: "linear", Seed: 1,
		},
	},
	"smoluchowski_secondary": {
		"autocatalytic": {
			Params: models.Params{Kind: models.SmoluchowskiSecondary, Ka: models.F(0.1), Kb: models.F(0.01), A: models.F(1), Kn: models.F(1e-4), K2: models.F(0.1), Co: models.F(10), Nc: models.I(2)},
			N:      1000, TStop: 10, Runs: 10, Bins: 100, BinScale: "linear", Seed: 1,
		},
	},
	"becker_doring_crowding": {
		"crowded": {
			Params: models.Params{
				Kind: models.BeckerDoringCrowding, A: models.F(1), B: models.F(0.5), Co: models.F(10), Nc: models.I(2),
				Crowding: models.Crowding{Phi: models.F(0.2), RMonomer: models.F(1), RCrowder: models.F(2)},
			},
			N: 500, TStop: 5, Runs: 10, Bins: 100, BinScale: "linear", Seed: 1,
		},
	},
	"smoluchowski_crowding": {
		"crowded": {
			Params: models.Params{
				Kind: models.SmoluchowskiCrowding, Ka: models.F(0.5), Kb: models.F(0.5), Co: models.F(10), Nc: models.I(2),
				Crowding: models.Crowding{Phi: models.F(0.3), RMonomer: models.F(1), RCrowder: models.F(1.5)},
			},
			N: 500, TStop: 5, Runs: 10, Bins: 100, BinScale: "linear", Seed: 1,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
