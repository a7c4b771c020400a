package models_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/models"
)

func population(m map[int]int) kinetics.Population {
	p, err := kinetics.PopulationFrom(m)
	Expect(err).NotTo(HaveOccurred())
	return p
}

func paramsFor(kind models.Kind) models.Params {
	p := models.Params{
		Kind: kind,
		A:    models.F(1), B: models.F(0.5),
		Ka: models.F(0.2), Kb: models.F(0.1),
		K2: models.F(0.01),
		Nc: models.I(2),
	}
	if kind.Crowded() {
		p.Crowding = models.Crowding{Phi: models.F(0.2), RMonomer: models.F(1), RCrowder: models.F(2)}
	}
	return p
}

func byKind(channels []kinetics.Channel, kind kinetics.ReactionKind) []kinetics.Channel {
	var out []kinetics.Channel
	for _, c := range channels {
		if c.Reaction.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

var _ = Describe("reaction models", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewPCG(7, 11))
	})

	Describe("invariants", func() {
		states := []map[int]int{
			{1: 100},
			{1: 40, 2: 5, 3: 3, 7: 2, 12: 1},
			{2: 4, 4: 1, 9: 2},
			{1: 1, 5: 1},
			{1: 3, 2: 1, 3: 1, 4: 1, 5: 1, 6: 1},
		}

		for _, kind := range models.Kinds() {
			kind := kind
			It("conserves mass and keeps counts non-negative for "+kind.String(), func() {
				m, _, err := models.New(paramsFor(kind), 100)
				Expect(err).NotTo(HaveOccurred())

				for _, s := range states {
					p := population(s)
					before := p.String()
					channels := m.Propensities(p, rng, nil)
					Expect(p.String()).To(Equal(before), "model mutated its input")

					for _, c := range channels {
						Expect(c.Propensity).To(BeNumerically(">=", 0))
						Expect(c.Reaction.MassChange()).To(BeZero(), c.Reaction.String())
						if c.Propensity == 0 {
							continue
						}
						q := p.Clone()
						Expect(q.Apply(c.Reaction.Deltas)).To(Succeed(), "%s on %s", c.Reaction, p)
						Expect(q.Valid()).To(BeTrue())
						Expect(q.Mass()).To(Equal(p.Mass()))
					}
				}
			})
		}
	})

	Describe("Becker-Döring", func() {
		var m kinetics.Model

		BeforeEach(func() {
			var err error
			m, _, err = models.New(models.Params{Kind: models.BeckerDoring, A: models.F(2), B: models.F(1)}, 100)
			Expect(err).NotTo(HaveOccurred())
		})

		It("only nucleates from pure monomer", func() {
			channels := m.Propensities(population(map[int]int{1: 100}), nil, nil)
			Expect(channels).To(HaveLen(1))
			Expect(channels[0].Reaction.Kind).To(Equal(kinetics.Nucleation))
			// kn defaults to a; falling factorial 100·99
			Expect(channels[0].Propensity).To(BeNumerically("~", 2*100*99, 1e-9))
		})

		It("dissolves a nucleus that loses a monomer", func() {
			channels := m.Propensities(population(map[int]int{1: 10, 2: 1}), nil, nil)
			sub := byKind(channels, kinetics.Subtraction)
			Expect(sub).To(HaveLen(1))
			Expect(sub[0].Reaction.Deltas).To(ConsistOf(
				kinetics.Delta{Species: 2, Change: -1},
				kinetics.Delta{Species: 1, Change: 2},
			))
		})

		It("shrinks larger polymers by one unit", func() {
			channels := m.Propensities(population(map[int]int{1: 10, 5: 3}), nil, nil)
			sub := byKind(channels, kinetics.Subtraction)
			Expect(sub).To(HaveLen(1))
			Expect(sub[0].Propensity).To(BeNumerically("~", 3, 1e-12))
			Expect(sub[0].Reaction.Deltas).To(ContainElement(kinetics.Delta{Species: 4, Change: 1}))

			add := byKind(channels, kinetics.Addition)
			Expect(add).To(HaveLen(1))
			Expect(add[0].Propensity).To(BeNumerically("~", 2*10*3, 1e-12))
		})

		It("omits addition when no monomer is left", func() {
			channels := m.Propensities(population(map[int]int{3: 2}), nil, nil)
			Expect(byKind(channels, kinetics.Addition)).To(BeEmpty())
			Expect(byKind(channels, kinetics.Nucleation)).To(BeEmpty())
		})
	})

	Describe("Smoluchowski", func() {
		var m kinetics.Model

		BeforeEach(func() {
			var err error
			m, _, err = models.New(models.Params{
				Kind: models.Smoluchowski, Co: models.F(100), Ka: models.F(1), Kb: models.F(1), Nc: models.I(3),
			}, 100)
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires two aggregates for self coagulation", func() {
			Expect(byKind(m.Propensities(population(map[int]int{3: 1}), rng, nil), kinetics.Coagulation)).To(BeEmpty())

			coag := byKind(m.Propensities(population(map[int]int{3: 2}), rng, nil), kinetics.Coagulation)
			Expect(coag).To(HaveLen(1))
			Expect(coag[0].Propensity).To(BeNumerically("~", 0.5*2*1, 1e-12))
			Expect(coag[0].Reaction.Deltas).To(ConsistOf(
				kinetics.Delta{Species: 3, Change: -2},
				kinetics.Delta{Species: 6, Change: 1},
			))
		})

		It("enumerates every unordered pair once", func() {
			coag := byKind(m.Propensities(population(map[int]int{3: 2, 4: 1, 5: 3}), rng, nil), kinetics.Coagulation)
			// (3,3) (3,4) (3,5) (4,5) (5,5); (4,4) needs two tetramers
			Expect(coag).To(HaveLen(5))
		})

		It("fragments only aggregates larger than three", func() {
			Expect(byKind(m.Propensities(population(map[int]int{3: 5}), rng, nil), kinetics.Fragmentation)).To(BeEmpty())

			frag := byKind(m.Propensities(population(map[int]int{4: 1}), rng, nil), kinetics.Fragmentation)
			Expect(frag).To(HaveLen(1))
			Expect(frag[0].Propensity).To(BeNumerically("~", 1, 1e-12))
			// the only cut of a tetramer gives two dimers, below nc=3 they dissolve
			Expect(frag[0].Reaction.Deltas).To(ConsistOf(
				kinetics.Delta{Species: 4, Change: -1},
				kinetics.Delta{Species: 1, Change: 4},
			))
		})

		It("draws split points inside the valid range", func() {
			seen := map[int]bool{}
			for i := 0; i < 200; i++ {
				frag := byKind(m.Propensities(population(map[int]int{10: 1}), rng, nil), kinetics.Fragmentation)
				Expect(frag).To(HaveLen(1))
				Expect(frag[0].Propensity).To(BeNumerically("~", 7, 1e-12))
				for _, d := range frag[0].Reaction.Deltas {
					if d.Change > 0 && d.Species > 1 {
						Expect(d.Species).To(BeNumerically(">=", 3))
						Expect(d.Species).To(BeNumerically("<=", 8))
						seen[d.Species] = true
					}
				}
			}
			Expect(len(seen)).To(BeNumerically(">", 2))
		})
	})

	Describe("secondary nucleation", func() {
		It("needs polymer mass at or above n2", func() {
			m, _, err := models.New(models.Params{
				Kind: models.BeckerDoringSecondary, A: models.F(1), B: models.F(1), K2: models.F(0.5), N2: models.I(4),
			}, 50)
			Expect(err).NotTo(HaveOccurred())

			Expect(byKind(m.Propensities(population(map[int]int{1: 10, 3: 2}), nil, nil), kinetics.SecondaryNucleation)).To(BeEmpty())

			sec := byKind(m.Propensities(population(map[int]int{1: 10, 3: 2, 5: 2}), nil, nil), kinetics.SecondaryNucleation)
			Expect(sec).To(HaveLen(1))
			Expect(sec[0].Propensity).To(BeNumerically("~", 0.5*10*9*10, 1e-9))
		})
	})
})

var _ = Describe("parameter resolution", func() {
	It("fills Smoluchowski defaults from ka and kb", func() {
		r, err := models.Resolve(models.Params{Kind: models.Smoluchowski, Ka: models.F(1), Kb: models.F(3)}, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.A).To(Equal(1.0))
		Expect(r.B).To(Equal(3.0))
		Expect(r.Kn).To(Equal(1.0))
		Expect(r.Nc).To(Equal(2))
		Expect(r.Volume).To(Equal(1.0))
	})

	It("takes subtraction from kd and keeps explicit zeros", func() {
		r, err := models.Resolve(models.Params{Kind: models.BeckerDoring, A: models.F(2), Kd: models.F(0.3), Kn: models.F(0)}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.B).To(Equal(0.3))
		Expect(r.Kn).To(Equal(0.0))
	})

	It("scales the volume by the reference concentration", func() {
		r, err := models.Resolve(models.Params{Kind: models.BeckerDoring, A: models.F(1), B: models.F(1), Co: models.F(50)}, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Volume).To(Equal(2.0))
	})

	DescribeTable("rejects invalid parameters",
		func(p models.Params, n int) {
			_, err := models.Resolve(p, n)
			Expect(err).To(MatchError(kinetics.ErrInvalidConfig))
		},
		Entry("missing a", models.Params{Kind: models.BeckerDoring, B: models.F(1)}, 10),
		Entry("missing b and kd", models.Params{Kind: models.BeckerDoring, A: models.F(1)}, 10),
		Entry("nc below 2", models.Params{Kind: models.BeckerDoring, A: models.F(1), B: models.F(1), Nc: models.I(1)}, 10),
		Entry("no monomers", models.Params{Kind: models.BeckerDoring, A: models.F(1), B: models.F(1)}, 0),
		Entry("negative rate", models.Params{Kind: models.BeckerDoring, A: models.F(-1), B: models.F(1)}, 10),
		Entry("missing kb", models.Params{Kind: models.Smoluchowski, Ka: models.F(1)}, 10),
		Entry("missing k2", models.Params{Kind: models.SmoluchowskiSecondary, Ka: models.F(1), Kb: models.F(1)}, 10),
		Entry("bad co", models.Params{Kind: models.BeckerDoring, A: models.F(1), B: models.F(1), Co: models.F(0)}, 10),
		Entry("crowding without radii", models.Params{
			Kind: models.BeckerDoringCrowding, A: models.F(1), B: models.F(1),
			Crowding: models.Crowding{Phi: models.F(0.3)},
		}, 10),
		Entry("crowding on a non-crowding kind", models.Params{
			Kind: models.Smoluchowski, Ka: models.F(1), Kb: models.F(1),
			Crowding: models.Crowding{Phi: models.F(0.2), RMonomer: models.F(1), RCrowder: models.F(2)},
		}, 10),
	)

	It("parses kind names and aliases", func() {
		k, err := models.ParseKind("Smoluchowski-Secondary")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(models.SmoluchowskiSecondary))

		k, err = models.ParseKind("bd")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(models.BeckerDoring))

		_, err = models.ParseKind("lorenz")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("crowding", func() {
	It("defaults to no correction", func() {
		g, a, err := models.CrowdingFactors(models.Crowding{}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(Equal(1.0))
		Expect(a).To(Equal(1.0))
	})

	It("enhances addition and nucleation in a crowded volume", func() {
		g, a, err := models.CrowdingFactors(models.Crowding{
			Phi: models.F(0.2), RMonomer: models.F(1), RCrowder: models.F(2),
		}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(BeNumerically(">", 1))
		Expect(a).To(BeNumerically(">", 1))
	})

	It("matches the dilute limit", func() {
		Expect(models.ActivityCoefficient(1, 0)).To(BeNumerically("~", 1, 1e-12))
	})
})
