package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/polysim/internal/kinetics"
)

// BinScale selects the spacing of the sampling grid.
type BinScale string

const (
	LinearScale BinScale = "linear"
	LogScale    BinScale = "log"

	// logDecades is the span of a logarithmic grid below the stop time.
	logDecades = 3.0
)

func ParseBinScale(s string) (BinScale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear", "lin":
		return LinearScale, nil
	case "log", "logarithmic":
		return LogScale, nil
	default:
		return "", fmt.Errorf("%w: unknown bin scale %q", kinetics.ErrInvalidConfig, s)
	}
}

// Grid returns bins sampling times ending at tstop. A linear grid uses
// t_k = (k+1)·tstop/bins; a log grid spaces points geometrically from
// tstop·10^-3 to tstop.
func Grid(tstop float64, bins int, scale BinScale) ([]float64, error) {
	if !(tstop > 0) {
		return nil, kinetics.Invalidf("tstop must be positive, got %g", tstop)
	}
	if bins < 1 {
		return nil, kinetics.Invalidf("bins must be >= 1, got %d", bins)
	}

	grid := make([]float64, bins)
	switch scale {
	case LinearScale, "":
		dt := tstop / float64(bins)
		for k := range grid {
			grid[k] = float64(k+1) * dt
		}
	case LogScale:
		for k := range grid {
			if bins == 1 {
				grid[k] = tstop
				continue
			}
			exp := -logDecades * float64(bins-1-k) / float64(bins-1)
			grid[k] = tstop * math.Pow(10, exp)
		}
	default:
		return nil, kinetics.Invalidf("unknown bin scale %q", string(scale))
	}
	grid[bins-1] = tstop
	return grid, nil
}
