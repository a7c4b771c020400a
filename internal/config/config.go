package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/models"
	"github.com/san-kum/polysim/internal/sim"
)

const (
	DefaultN     = 1000
	DefaultTStop = 1.0
	DefaultRuns  = 1
	DefaultRate  = 1.0
)

// Config is the input record of one ensemble. Rate constants and the
// crowding block sit at the top level next to the run settings.
type Config struct {
	models.Params `yaml:",inline"`

	N        int      `yaml:"n" json:"n"`
	TStop    float64  `yaml:"tstop" json:"tstop"`
	Runs     int      `yaml:"runs" json:"runs"`
	IndRuns  int      `yaml:"ind_runs" json:"ind_runs"`
	Bins     int      `yaml:"bins" json:"bins"`
	BinScale string   `yaml:"bin_scale" json:"bin_scale"`
	Seed     uint64   `yaml:"seed" json:"seed"`
	Workers  int      `yaml:"workers,omitempty" json:"workers,omitempty"`
	MaxSteps int      `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`
	Metrics  []string `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Params: models.Params{
			Kind: models.BeckerDoring,
			A:    models.F(DefaultRate),
			B:    models.F(DefaultRate),
		},
		N:        DefaultN,
		TStop:    DefaultTStop,
		Runs:     DefaultRuns,
		Bins:     sim.DefaultBins,
		BinScale: string(sim.LinearScale),
	}
}

// Load reads a YAML (or JSON) file on top of DefaultConfig. Rate
// constants are never inherited from the defaults: unset rates follow
// the model's own default rules. The file must name its model and may
// not contain unknown keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tag struct {
		Model *string `yaml:"model"`
	}
	if err := yaml.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", kinetics.ErrInvalidConfig, path, err)
	}
	if tag.Model == nil {
		return nil, kinetics.Invalidf("%s: missing model", path)
	}

	cfg := DefaultConfig()
	cfg.Params = models.Params{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", kinetics.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy whose optional fields can be reassigned without
// touching c.
func (c *Config) Clone() *Config {
	out := *c
	out.Metrics = append([]string(nil), c.Metrics...)
	return &out
}

// Validate checks the run settings and resolves the rate constants.
func (c *Config) Validate() error {
	switch {
	case c.N < 1:
		return kinetics.Invalidf("n must be >= 1, got %d", c.N)
	case !(c.TStop > 0):
		return kinetics.Invalidf("tstop must be positive, got %g", c.TStop)
	case c.Runs < 1:
		return kinetics.Invalidf("runs must be >= 1, got %d", c.Runs)
	case c.IndRuns < 0:
		return kinetics.Invalidf("ind_runs must not be negative, got %d", c.IndRuns)
	case c.Bins < 1:
		return kinetics.Invalidf("bins must be >= 1, got %d", c.Bins)
	case c.Workers < 0:
		return kinetics.Invalidf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := sim.ParseBinScale(c.BinScale); err != nil {
		return err
	}
	_, err := models.Resolve(c.Params, c.N)
	return err
}

// Model builds the reaction model described by c.
func (c *Config) Model() (kinetics.Model, models.Rates, error) {
	if err := c.Validate(); err != nil {
		return nil, models.Rates{}, err
	}
	return models.New(c.Params, c.N)
}

// InitialPopulation is N free monomers.
func (c *Config) InitialPopulation() (kinetics.Population, error) {
	return kinetics.NewPopulation(c.N)
}

// Ensemble converts c into the orchestrator settings. Progress, logging
// and metrics are left for the caller.
func (c *Config) Ensemble() (sim.EnsembleConfig, error) {
	scale, err := sim.ParseBinScale(c.BinScale)
	if err != nil {
		return sim.EnsembleConfig{}, err
	}
	run := sim.DefaultConfig()
	run.TStop = c.TStop
	run.Seed = c.Seed
	if c.MaxSteps != 0 {
		run.MaxSteps = c.MaxSteps
	}
	return sim.EnsembleConfig{
		Runs:     c.Runs,
		IndRuns:  c.IndRuns,
		Bins:     c.Bins,
		BinScale: scale,
		Workers:  c.Workers,
		Run:      run,
	}, nil
}
