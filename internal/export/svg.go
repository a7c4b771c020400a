package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/kinetics"
)

// Observable selects which moment series a chart shows.
type Observable string

const (
	Mass   Observable = "mass"
	Number Observable = "number"
	Length Observable = "length"
)

func ParseObservable(s string) (Observable, error) {
	switch o := Observable(strings.ToLower(strings.TrimSpace(s))); o {
	case Mass, Number, Length:
		return o, nil
	case "":
		return Length, nil
	default:
		return "", fmt.Errorf("%w: unknown observable %q (mass, number, length)", kinetics.ErrInvalidConfig, s)
	}
}

// Values returns the mean and standard deviation of o for every bin.
func (o Observable) Values(moments []analysis.Moments) (mean, sd []float64) {
	mean = make([]float64, len(moments))
	sd = make([]float64, len(moments))
	for i, m := range moments {
		switch o {
		case Mass:
			mean[i], sd[i] = m.Mass, m.MassSD()
		case Number:
			mean[i], sd[i] = m.Number, m.NumberSD()
		default:
			mean[i], sd[i] = m.Length, m.LengthSD()
		}
	}
	return mean, sd
}

type Point struct{ X, Y float64 }

type bounds struct {
	minX, maxX, minY, maxY float64
}

func boundsOf(points ...[]Point) bounds {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, ps := range points {
		for _, p := range ps {
			b.minX, b.maxX = math.Min(b.minX, p.X), math.Max(b.maxX, p.X)
			b.minY, b.maxY = math.Min(b.minY, p.Y), math.Max(b.maxY, p.Y)
		}
	}

	// Add padding
	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.05
	b.maxX += rangeX * 0.05
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b
}

func (b bounds) project(p Point, width, height int) (float64, float64) {
	x := (p.X - b.minX) / (b.maxX - b.minX) * float64(width)
	y := float64(height) - (p.Y-b.minY)/(b.maxY-b.minY)*float64(height)
	return x, y
}

// MomentsToSVG draws the ensemble mean of o over time with a shaded
// band of one standard deviation on either side.
func MomentsToSVG(moments []analysis.Moments, o Observable, width, height int, strokeColor string) string {
	if len(moments) < 2 {
		return ""
	}

	mean, sd := o.Values(moments)
	line := make([]Point, len(moments))
	upper := make([]Point, len(moments))
	lower := make([]Point, len(moments))
	for i, m := range moments {
		line[i] = Point{m.T, mean[i]}
		upper[i] = Point{m.T, mean[i] + sd[i]}
		lower[i] = Point{m.T, mean[i] - sd[i]}
	}
	b := boundsOf(line, upper, lower)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<title>%s</title>
`, width, height, width, height, o))

	// band: upper edge forward, lower edge back
	sb.WriteString(fmt.Sprintf(`<path fill="%s" fill-opacity="0.25" stroke="none" d="`, strokeColor))
	for i, p := range upper {
		x, y := b.project(p, width, height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	for i := len(lower) - 1; i >= 0; i-- {
		x, y := b.project(lower[i], width, height)
		sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
	}
	sb.WriteString(" Z\"/>\n")

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, strokeColor))
	writePath(&sb, line, b, width, height)
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// SeriesToSVG plots a single trajectory of points, such as one species
// count over time.
func SeriesToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}
	b := boundsOf(points)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, strokeColor))
	writePath(&sb, points, b, width, height)
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func writePath(sb *strings.Builder, points []Point, b bounds, width, height int) {
	for i, p := range points {
		x, y := b.project(p, width, height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
}
