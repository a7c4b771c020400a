package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/models"
	"github.com/san-kum/polysim/internal/sim"
)

func ensemble(p models.Params, n, runs, indRuns int) *sim.EnsembleResult {
	model, _, err := models.New(p, n)
	Expect(err).NotTo(HaveOccurred())

	x0, err := kinetics.NewPopulation(n)
	Expect(err).NotTo(HaveOccurred())

	run := sim.DefaultConfig()
	run.TStop = 2
	run.Seed = 1
	res, err := sim.NewEnsemble(model, sim.EnsembleConfig{
		Runs:    runs,
		IndRuns: indRuns,
		Run:     run,
	}).Run(context.Background(), x0)
	Expect(err).NotTo(HaveOccurred())
	return res
}

var _ = Describe("aggregation ensembles", func() {
	It("runs a single Becker-Döring trajectory to t_stop", func() {
		res := ensemble(models.Params{
			Kind: models.BeckerDoring,
			A:    models.F(1), B: models.F(1),
			Nc: models.I(2),
		}, 100, 1, 0)

		Expect(res.Runs).To(Equal(1))
		Expect(res.Mean).To(HaveLen(sim.DefaultBins))
		Expect(res.Final().Time).To(Equal(2.0))
		Expect(analysis.TotalMass(res.Final())).To(BeNumerically("~", 100, 1e-9))
		Expect(res.RawRuns).To(BeEmpty())
	})

	It("keeps the requested raw run for Smoluchowski kinetics", func() {
		res := ensemble(models.Params{
			Kind: models.Smoluchowski,
			Ka:   models.F(1), Kb: models.F(1),
			Co: models.F(100),
			Nc: models.I(3),
		}, 100, 1, 1)

		Expect(res.Mean).To(HaveLen(100))
		Expect(res.RawRuns).To(HaveLen(1))

		raw := res.RawRuns[0]
		Expect(raw.Times[0]).To(Equal(0.0))
		Expect(raw.Last().Time).To(BeNumerically(">=", 2.0))
		for _, s := range raw.States {
			Expect(s.Mass()).To(Equal(100))
		}
	})

	It("averages several runs with non-negative variance", func() {
		res := ensemble(models.Params{
			Kind: models.BeckerDoring,
			A:    models.F(1), B: models.F(1),
			Nc: models.I(2),
		}, 100, 5, 0)

		Expect(res.Runs).To(Equal(5))
		for _, b := range res.Variance {
			for _, v := range b.Species {
				Expect(v).To(BeNumerically(">=", 0))
			}
		}
		for i, m := range res.Moments {
			Expect(m.T).To(Equal(res.Grid[i]))
			Expect(m.MassSD()).To(BeNumerically(">=", 0))
			Expect(m.Mass).To(BeNumerically("~", analysis.PolymerMass(res.Mean[i], analysis.DefaultMinSize, 1), 1e-9))
		}
	})
})
