package kinetics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Population maps aggregate size (1 = free monomer) to the number of
// aggregates of that size. Species are kept in ascending size order so
// iteration is reproducible. Zero counts are never stored.
type Population struct {
	ids    []int
	counts map[int]int
}

// Delta is the change a reaction applies to one species.
type Delta struct {
	Species int `json:"species"`
	Change  int `json:"change"`
}

// NewPopulation returns a population holding all mass as free monomers.
func NewPopulation(monomers int) (Population, error) {
	if monomers < 1 {
		return Population{}, Invalidf("initial monomer count must be >= 1, got %d", monomers)
	}
	return Population{
		ids:    []int{1},
		counts: map[int]int{1: monomers},
	}, nil
}

// PopulationFrom builds a population from a size -> count map.
func PopulationFrom(m map[int]int) (Population, error) {
	p := Population{counts: make(map[int]int, len(m))}
	for id, n := range m {
		if id < 1 {
			return Population{}, Invalidf("species id must be >= 1, got %d", id)
		}
		if n < 0 {
			return Population{}, fmt.Errorf("%w: species %d has count %d", ErrNegativePopulation, id, n)
		}
		if n == 0 {
			continue
		}
		p.counts[id] = n
		p.ids = append(p.ids, id)
	}
	sort.Ints(p.ids)
	return p, nil
}

func (p Population) Count(id int) int { return p.counts[id] }
func (p Population) Len() int         { return len(p.ids) }

// Species returns the stored sizes in ascending order.
func (p Population) Species() []int {
	out := make([]int, len(p.ids))
	copy(out, p.ids)
	return out
}

// Each calls fn for every stored species in ascending size order.
func (p Population) Each(fn func(id, n int)) {
	for _, id := range p.ids {
		fn(id, p.counts[id])
	}
}

// Mass returns the total number of monomer units, Σ size·count.
func (p Population) Mass() int {
	m := 0
	for _, id := range p.ids {
		m += id * p.counts[id]
	}
	return m
}

// MaxSpecies returns the largest stored size, or 0 for an empty population.
func (p Population) MaxSpecies() int {
	if len(p.ids) == 0 {
		return 0
	}
	return p.ids[len(p.ids)-1]
}

func (p Population) Map() map[int]int {
	m := make(map[int]int, len(p.counts))
	for id, n := range p.counts {
		m[id] = n
	}
	return m
}

func (p Population) Clone() Population {
	c := Population{
		ids:    make([]int, len(p.ids)),
		counts: make(map[int]int, len(p.counts)),
	}
	copy(c.ids, p.ids)
	for id, n := range p.counts {
		c.counts[id] = n
	}
	return c
}

// Apply adds every delta to the population. If any resulting count would
// be negative the population is left untouched and ErrNegativePopulation
// is returned.
func (p *Population) Apply(deltas []Delta) error {
	for i, d := range deltas {
		if d.Species < 1 {
			return Invalidf("delta on species %d", d.Species)
		}
		n := p.counts[d.Species] + d.Change
		// deltas may touch the same species twice
		for _, prev := range deltas[:i] {
			if prev.Species == d.Species {
				n += prev.Change
			}
		}
		if n < 0 {
			return fmt.Errorf("%w: species %d would hold %d", ErrNegativePopulation, d.Species, n)
		}
	}
	if p.counts == nil {
		p.counts = make(map[int]int)
	}
	for _, d := range deltas {
		if d.Change == 0 {
			continue
		}
		old, ok := p.counts[d.Species]
		n := old + d.Change
		switch {
		case n == 0:
			delete(p.counts, d.Species)
			p.removeID(d.Species)
		case !ok:
			p.counts[d.Species] = n
			p.insertID(d.Species)
		default:
			p.counts[d.Species] = n
		}
	}
	return nil
}

func (p *Population) insertID(id int) {
	i := sort.SearchInts(p.ids, id)
	p.ids = append(p.ids, 0)
	copy(p.ids[i+1:], p.ids[i:])
	p.ids[i] = id
}

func (p *Population) removeID(id int) {
	i := sort.SearchInts(p.ids, id)
	if i < len(p.ids) && p.ids[i] == id {
		p.ids = append(p.ids[:i], p.ids[i+1:]...)
	}
}

// Valid reports whether the sorted index and the counts agree and every
// count is positive.
func (p Population) Valid() bool {
	if len(p.ids) != len(p.counts) {
		return false
	}
	for i, id := range p.ids {
		if i > 0 && p.ids[i-1] >= id {
			return false
		}
		if n, ok := p.counts[id]; !ok || n <= 0 {
			return false
		}
	}
	return true
}

func (p Population) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, id := range p.ids {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d:%d", id, p.counts[id])
	}
	sb.WriteByte('}')
	return sb.String()
}

func (p Population) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.counts)
}

func (p *Population) UnmarshalJSON(data []byte) error {
	var m map[int]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	q, err := PopulationFrom(m)
	if err != nil {
		return err
	}
	*p = q
	return nil
}
