package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/polysim/internal/config"
	"github.com/san-kum/polysim/internal/logging"
	"github.com/san-kum/polysim/internal/metrics"
	"github.com/san-kum/polysim/internal/models"
	"github.com/san-kum/polysim/internal/tui"
)

var (
	dataDir  string
	logLevel string
	logger   *slog.Logger

	// run settings
	n        int
	tstop    float64
	runs     int
	indRuns  int
	bins     int
	binScale string
	seed     uint64
	workers  int
	maxSteps int

	metricNames []string

	// rate constants
	rateA, rateB, rateKn, rateKa, rateKb, rateK2, rateKd, rateCo float64
	nc, n2                                                       int
	phi, rMonomer, rCrowder                                      float64

	configFile string
	preset     string
	showTUI    bool
	noSave     bool

	// output
	observable string
	outPath    string
	svgWidth   int
	svgHeight  int
	csvWhat    string
	topSpecies int
	runIndex   int
	withRaw    bool

	// sweep
	sweepParams []string
	objective   string
	maximize    bool
)

// main registers the polysim commands and runs the interactive view when
// no subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "polysim",
		Short: "stochastic polymer aggregation simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logLevel, os.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive(seed)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".polysim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (error, warn, info, debug, trace)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run an ensemble and store the averaged result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&showTUI, "tui", false, "show a progress view while running")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without storing the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a single trajectory evolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive(seed)
		},
	}
	liveCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "grid search over rate constants",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter range, name=start:stop:count or name=v1,v2 (repeatable)")
	sweepCmd.Flags().StringVar(&objective, "objective", "final_length", "final_length, final_mass or final_number")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize the objective")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run settings and final observables",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot mass, number and length over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&observable, "observable", "", "plot only mass, number or length")

	histCmd := &cobra.Command{
		Use:   "hist [run_id]",
		Short: "plot the final size distribution",
		Args:  cobra.ExactArgs(1),
		RunE:  histRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file")
	exportJSONCmd.Flags().BoolVar(&withRaw, "raw", false, "include stored raw runs")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export moments or species series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&csvWhat, "what", "moments", "moments, mean, variance or run")
	exportCSVCmd.Flags().IntVar(&topSpecies, "top", 0, "keep only the species with the largest peaks (0 = all)")
	exportCSVCmd.Flags().IntVar(&runIndex, "run", 0, "raw run index for --what run")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export an observable with its ±1 SD band as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&observable, "observable", "length", "mass, number or length")
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>_<observable>.svg)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list model kinds and metrics",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("models:")
			for _, k := range models.Kinds() {
				fmt.Printf("  %-26s %s\n", k, k.Info())
			}
			fmt.Println("\nmetrics:")
			fmt.Printf("  %s\n", strings.Join(metrics.Names(), "\n  "))
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, listCmd, showCmd, plotCmd, histCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd, presetsCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")

	f.IntVar(&n, "n", config.DefaultN, "initial monomer count")
	f.Float64Var(&tstop, "tstop", config.DefaultTStop, "stop time")
	f.IntVar(&runs, "runs", config.DefaultRuns, "number of independent runs")
	f.IntVar(&indRuns, "ind-runs", 0, "runs to keep verbatim")
	f.IntVar(&bins, "bins", 100, "time bins")
	f.StringVar(&binScale, "bin-scale", "linear", "linear or log")
	f.Uint64Var(&seed, "seed", 0, "random seed")
	f.IntVar(&workers, "workers", 0, "parallel runs (0 = all cores)")
	f.IntVar(&maxSteps, "max-steps", 0, "step budget per run (0 = default, <0 = unbounded)")
	f.StringSliceVar(&metricNames, "metrics", nil, "metrics to record (default all)")

	f.Float64Var(&rateA, "a", 1, "monomer addition rate")
	f.Float64Var(&rateB, "b", 1, "monomer subtraction rate")
	f.Float64Var(&rateKn, "kn", 0, "primary nucleation rate (default a)")
	f.Float64Var(&rateKa, "ka", 0, "coagulation rate")
	f.Float64Var(&rateKb, "kb", 0, "fragmentation rate")
	f.Float64Var(&rateK2, "k2", 0, "secondary nucleation rate")
	f.Float64Var(&rateKd, "kd", 0, "dissociation rate, used for b when b is unset")
	f.Float64Var(&rateCo, "co", 0, "initial monomer concentration")
	f.IntVar(&nc, "nc", 2, "critical nucleus size")
	f.IntVar(&n2, "n2", 0, "smallest seeding polymer for secondary nucleation (default nc)")
	f.Float64Var(&phi, "phi", 0, "crowder volume fraction")
	f.Float64Var(&rMonomer, "r-monomer", 1, "monomer radius")
	f.Float64Var(&rCrowder, "r-crowder", 1, "crowder radius")
}
