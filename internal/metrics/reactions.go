package metrics

import "github.com/san-kum/polysim/internal/kinetics"

// ReactionCount counts accepted reactions of one kind.
type ReactionCount struct {
	name  string
	kind  kinetics.ReactionKind
	count int
}

func NewReactionCount(kind kinetics.ReactionKind) *ReactionCount {
	return &ReactionCount{
		name: kind.String() + "_events",
		kind: kind,
	}
}

func (c *ReactionCount) Name() string {
	return c.name
}

func (c *ReactionCount) Observe(p kinetics.Population, r kinetics.Reaction, t float64) {
	if r.Kind == c.kind {
		c.count++
	}
}

func (c *ReactionCount) Value() float64 {
	return float64(c.count)
}

func (c *ReactionCount) Reset() {
	c.count = 0
}
