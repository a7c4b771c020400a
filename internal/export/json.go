package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/sim"
)

type ExportData struct {
	ID       string             `json:"id,omitempty"`
	Model    string             `json:"model"`
	Runs     int                `json:"runs"`
	Rates    []string           `json:"rates,omitempty"`
	Grid     []float64          `json:"grid"`
	Mean     kinetics.Series    `json:"mean"`
	Variance kinetics.Series    `json:"variance,omitempty"`
	Moments  []analysis.Moments `json:"moments"`
	RawRuns  []*sim.Trajectory  `json:"raw_runs,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// WriteJSON encodes data to w with indentation.
func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSON writes data to path, or to stdout when path is "-" or empty.
func ExportJSON(path string, data ExportData) error {
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, data)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}
