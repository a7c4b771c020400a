// Package experiment turns a configuration into a ready-to-run ensemble.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/polysim/internal/config"
	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/metrics"
	"github.com/san-kum/polysim/internal/models"
	"github.com/san-kum/polysim/internal/sim"
)

type Experiment struct {
	cfg      *config.Config
	model    kinetics.Model
	rates    models.Rates
	ensemble sim.EnsembleConfig
	x0       kinetics.Population
	ready    bool
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration and builds the model, the initial
// population and the ensemble settings. A nil logger discards output.
func (e *Experiment) Setup(logger *slog.Logger) error {
	model, rates, err := e.cfg.Model()
	if err != nil {
		return err
	}
	ens, err := e.cfg.Ensemble()
	if err != nil {
		return err
	}
	ens.Metrics, err = metrics.Factory(e.cfg.Metrics)
	if err != nil {
		return err
	}
	ens.Logger = logger
	x0, err := e.cfg.InitialPopulation()
	if err != nil {
		return err
	}

	e.model, e.rates, e.ensemble, e.x0 = model, rates, ens, x0
	e.ready = true
	return nil
}

// Tune lets the caller adjust ensemble settings after Setup.
func (e *Experiment) Tune(fn func(*sim.EnsembleConfig)) {
	if fn != nil {
		fn(&e.ensemble)
	}
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Rates() models.Rates          { return e.rates }
func (e *Experiment) Model() kinetics.Model        { return e.model }
func (e *Experiment) Initial() kinetics.Population { return e.x0 }
func (e *Experiment) Ensemble() sim.EnsembleConfig { return e.ensemble }

func (e *Experiment) Run(ctx context.Context) (*sim.EnsembleResult, error) {
	if !e.ready {
		return nil, fmt.Errorf("experiment not setup")
	}
	return sim.NewEnsemble(e.model, e.ensemble).Run(ctx, e.x0)
}
