package analysis

import (
	"sort"

	"github.com/san-kum/polysim/internal/kinetics"
)

// HistogramPoint is the mass held by aggregates of one size.
type HistogramPoint struct {
	Size int     `json:"size"`
	Mass float64 `json:"mass"`
}

// Histogram returns the mass-weighted size distribution of a bin, one
// point per size from 1 to the largest observed species. Sizes that are
// absent contribute zero.
func Histogram(b kinetics.Bin) []HistogramPoint {
	maxID := 0
	for id := range b.Species {
		if id > maxID {
			maxID = id
		}
	}
	out := make([]HistogramPoint, maxID)
	for size := 1; size <= maxID; size++ {
		out[size-1] = HistogramPoint{Size: size, Mass: float64(size) * b.Species[size]}
	}
	return out
}

// SpeciesSeries reshapes a series into one dense time series per species.
// ids lists every species seen in any bin in ascending order; bins that
// lack a species read as zero.
func SpeciesSeries(s kinetics.Series) (ids []int, values map[int][]float64) {
	seen := make(map[int]bool)
	for _, b := range s {
		for id := range b.Species {
			seen[id] = true
		}
	}
	ids = make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	values = make(map[int][]float64, len(ids))
	for _, id := range ids {
		col := make([]float64, len(s))
		for i, b := range s {
			col[i] = b.Species[id]
		}
		values[id] = col
	}
	return ids, values
}

// Top returns the n species with the largest peak value, in ascending id
// order, for plotting a readable subset.
func Top(values map[int][]float64, n int) []int {
	type peak struct {
		id  int
		max float64
	}
	peaks := make([]peak, 0, len(values))
	for id, col := range values {
		m := 0.0
		for _, v := range col {
			if v > m {
				m = v
			}
		}
		peaks = append(peaks, peak{id, m})
	}
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].max != peaks[j].max {
			return peaks[i].max > peaks[j].max
		}
		return peaks[i].id < peaks[j].id
	})
	if n > len(peaks) {
		n = len(peaks)
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = peaks[i].id
	}
	sort.Ints(ids)
	return ids
}
