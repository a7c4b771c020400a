package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/kinetics"
)

// MomentsHeader is the column layout of WriteMoments.
var MomentsHeader = []string{"time", "mass", "mass_sd", "number", "number_sd", "length", "length_sd"}

// WriteMoments writes one row per bin with means and standard deviations.
func WriteMoments(w io.Writer, moments []analysis.Moments) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MomentsHeader); err != nil {
		return err
	}
	for _, m := range moments {
		row := []string{
			formatFloat(m.T),
			formatFloat(m.Mass), formatFloat(m.MassSD()),
			formatFloat(m.Number), formatFloat(m.NumberSD()),
			formatFloat(m.Length), formatFloat(m.LengthSD()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeries writes a dense table with one column per species; species
// absent from a bin are written as 0. A positive top keeps only the top
// species with the largest peak values.
func WriteSeries(w io.Writer, s kinetics.Series, top int) error {
	ids, values := analysis.SpeciesSeries(s)
	if top > 0 && top < len(ids) {
		ids = analysis.Top(values, top)
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(ids)+1)
	header = append(header, "time")
	for _, id := range ids {
		header = append(header, "n"+strconv.Itoa(id))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, b := range s {
		row := make([]string, 0, len(ids)+1)
		row = append(row, formatFloat(b.Time))
		for _, id := range ids {
			row = append(row, formatFloat(values[id][i]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
