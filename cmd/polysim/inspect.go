package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/export"
	"github.com/san-kum/polysim/internal/sim"
	"github.com/san-kum/polysim/internal/storage"
)

// openRun resolves an id prefix against the data directory.
func openRun(prefix string) (*storage.Store, string, error) {
	store := storage.New(dataDir)
	runID, err := store.Resolve(prefix)
	if err != nil {
		return nil, "", err
	}
	return store, runID, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tN\tRUNS\tTSTOP\tEVENTS\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\t%d\t%s\n",
			run.ID[:8], run.Model, run.N, run.Runs, run.TStop, run.Steps,
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	store, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	meta, err := store.Load(runID)
	if err != nil {
		return err
	}
	moments, err := store.LoadMoments(runID)
	if err != nil {
		return err
	}

	fmt.Printf("id:        %s\n", meta.ID)
	fmt.Printf("model:     %s\n", meta.Model)
	fmt.Printf("timestamp: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("n:         %d\n", meta.N)
	fmt.Printf("tstop:     %g\n", meta.TStop)
	fmt.Printf("runs:      %d\n", meta.Runs)
	fmt.Printf("bins:      %d\n", meta.Bins)
	fmt.Printf("seed:      %d\n", meta.Seed)
	fmt.Printf("events:    %d in %s\n", meta.Steps, meta.Elapsed)
	fmt.Printf("rates:     %s\n", strings.Join(meta.Rates, " "))

	if len(moments) > 0 {
		last := moments[len(moments)-1]
		fmt.Printf("\nt = %g\n", last.T)
		fmt.Printf("  mass   %12.4f ± %.4f\n", last.Mass, last.MassSD())
		fmt.Printf("  number %12.4f ± %.4f\n", last.Number, last.NumberSD())
		fmt.Printf("  length %12.4f ± %.4f\n", last.Length, last.LengthSD())
	}
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	store, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	moments, err := store.LoadMoments(runID)
	if err != nil {
		return err
	}
	if len(moments) == 0 {
		return fmt.Errorf("run %s has no data", runID)
	}

	observables := []export.Observable{export.Mass, export.Number, export.Length}
	if observable != "" {
		o, err := export.ParseObservable(observable)
		if err != nil {
			return err
		}
		observables = []export.Observable{o}
	}

	for _, o := range observables {
		mean, sd := o.Values(moments)
		upper := make([]float64, len(mean))
		lower := make([]float64, len(mean))
		for i := range mean {
			upper[i] = mean[i] + sd[i]
			lower[i] = mean[i] - sd[i]
		}
		graph := asciigraph.PlotMany([][]float64{lower, upper, mean},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.DarkGray, asciigraph.DarkGray, asciigraph.Cyan),
			asciigraph.Caption(fmt.Sprintf("%s ± 1 SD, t = 0..%g", o, moments[len(moments)-1].T)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func histRun(cmd *cobra.Command, args []string) error {
	store, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	series, err := store.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Mean) == 0 {
		return fmt.Errorf("run %s has no data", runID)
	}

	final := series.Mean[len(series.Mean)-1]
	hist := analysis.Histogram(final)
	data := make([]float64, len(hist))
	for i, p := range hist {
		data[i] = p.Mass
	}
	if len(data) < 2 {
		fmt.Printf("only monomers at t = %g (mass %g)\n", final.Time, analysis.TotalMass(final))
		return nil
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("mass by aggregate size 1..%d at t = %g", len(data), final.Time)),
	)
	fmt.Println(graph)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	store, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	meta, err := store.Load(runID)
	if err != nil {
		return err
	}
	series, err := store.LoadSeries(runID)
	if err != nil {
		return err
	}
	moments, err := store.LoadMoments(runID)
	if err != nil {
		return err
	}

	data := export.ExportData{
		ID:       meta.ID,
		Model:    meta.Model,
		Runs:     meta.Runs,
		Rates:    meta.Rates,
		Grid:     series.Grid,
		Mean:     series.Mean,
		Variance: series.Variance,
		Moments:  moments,
		Metrics:  meta.Metrics,
	}
	if withRaw {
		data.RawRuns, err = store.LoadRuns(runID)
		if err != nil {
			return err
		}
	}

	if err := export.ExportJSON(outPath, data); err != nil {
		return err
	}
	if outPath != "" && outPath != "-" {
		fmt.Fprintf(os.Stderr, "exported to %s\n", outPath)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	store, runID, err := openRun(args[0])
	if err != nil {
		return err
	}

	switch csvWhat {
	case "moments":
		moments, err := store.LoadMoments(runID)
		if err != nil {
			return err
		}
		return export.WriteMoments(os.Stdout, moments)
	case "mean":
		series, err := store.LoadSeries(runID)
		if err != nil {
			return err
		}
		return export.WriteSeries(os.Stdout, series.Mean, topSpecies)
	case "variance":
		series, err := store.LoadSeries(runID)
		if err != nil {
			return err
		}
		return export.WriteSeries(os.Stdout, series.Variance, topSpecies)
	case "run":
		series, err := store.LoadSeries(runID)
		if err != nil {
			return err
		}
		runs, err := store.LoadRuns(runID)
		if err != nil {
			return err
		}
		if runIndex < 0 || runIndex >= len(runs) {
			return fmt.Errorf("run %s keeps %d raw runs, no index %d", runID, len(runs), runIndex)
		}
		return export.WriteSeries(os.Stdout, sim.ResampleSeries(runs[runIndex], series.Grid), topSpecies)
	default:
		return fmt.Errorf("unknown --what %q (moments, mean, variance, run)", csvWhat)
	}
}

func exportSVG(cmd *cobra.Command, args []string) error {
	store, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	o, err := export.ParseObservable(observable)
	if err != nil {
		return err
	}
	moments, err := store.LoadMoments(runID)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = fmt.Sprintf("%s_%s.svg", runID[:8], o)
	}
	svg := export.MomentsToSVG(moments, o, svgWidth, svgHeight, "#00d7ff")
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}
