package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/polysim/internal/config"
	"github.com/san-kum/polysim/internal/experiment"
	"github.com/san-kum/polysim/internal/models"
	"github.com/san-kum/polysim/internal/optim"
	"github.com/san-kum/polysim/internal/sim"
	"github.com/san-kum/polysim/internal/storage"
	"github.com/san-kum/polysim/internal/tui"
)

// buildConfig layers preset, config file, the model argument and any
// explicitly set flags, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		if len(args) == 0 {
			return nil, fmt.Errorf("--preset needs a model argument")
		}
		p := config.GetPreset(args[0], preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for model %s", preset, args[0])
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(args) > 0 {
		kind, err := models.ParseKind(args[0])
		if err != nil {
			return nil, err
		}
		cfg.Kind = kind
		// addition and subtraction default to ka and kb for coagulating schemes
		if preset == "" && configFile == "" && kind.Coagulating() {
			cfg.A, cfg.B = nil, nil
		}
	}

	f := cmd.Flags()
	if f.Changed("n") {
		cfg.N = n
	}
	if f.Changed("tstop") {
		cfg.TStop = tstop
	}
	if f.Changed("runs") {
		cfg.Runs = runs
	}
	if f.Changed("ind-runs") {
		cfg.IndRuns = indRuns
	}
	if f.Changed("bins") {
		cfg.Bins = bins
	}
	if f.Changed("bin-scale") {
		cfg.BinScale = binScale
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if f.Changed("metrics") {
		cfg.Metrics = metricNames
	}

	rates := []struct {
		flag string
		dst  **float64
		v    float64
	}{
		{"a", &cfg.A, rateA},
		{"b", &cfg.B, rateB},
		{"kn", &cfg.Kn, rateKn},
		{"ka", &cfg.Ka, rateKa},
		{"kb", &cfg.Kb, rateKb},
		{"k2", &cfg.K2, rateK2},
		{"kd", &cfg.Kd, rateKd},
		{"co", &cfg.Co, rateCo},
		{"phi", &cfg.Crowding.Phi, phi},
		{"r-monomer", &cfg.Crowding.RMonomer, rMonomer},
		{"r-crowder", &cfg.Crowding.RCrowder, rCrowder},
	}
	for _, r := range rates {
		if f.Changed(r.flag) {
			*r.dst = models.F(r.v)
		}
	}
	if f.Changed("kd") && !f.Changed("b") {
		cfg.B = nil
	}
	if f.Changed("nc") {
		cfg.Nc = models.I(nc)
	}
	if f.Changed("n2") {
		cfg.N2 = models.I(n2)
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(logger); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running ensemble", "model", cfg.Kind, "n", cfg.N, "runs", cfg.Runs, "tstop", cfg.TStop, "seed", cfg.Seed)

	var res *sim.EnsembleResult
	if showTUI {
		title := fmt.Sprintf("%s  n=%d  runs=%d", cfg.Kind, cfg.N, cfg.Runs)
		res, err = tui.RunEnsemble(ctx, title, exp.Model(), exp.Ensemble(), exp.Initial())
	} else {
		res, err = exp.Run(ctx)
	}
	if err != nil {
		return err
	}

	logger.Info("ensemble finished", "steps", res.Steps, "elapsed", res.Elapsed)

	if !noSave {
		store := storage.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
		runID, err := store.Save(cfg, exp.Rates().Describe(), res)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printSummary(res)
	return nil
}

func printSummary(res *sim.EnsembleResult) {
	last := res.Moments[len(res.Moments)-1]
	fmt.Printf("\nt = %g  (%d runs, %d events, %s)\n", last.T, res.Runs, res.Steps, res.Elapsed.Round(time.Millisecond))
	fmt.Printf("  mass   %12.4f ± %.4f\n", last.Mass, last.MassSD())
	fmt.Printf("  number %12.4f ± %.4f\n", last.Number, last.NumberSD())
	fmt.Printf("  length %12.4f ± %.4f\n", last.Length, last.LengthSD())
	printMetrics(res.Metrics)
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-22s %.6g\n", name, m[name])
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	base, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	obj, err := optim.ParseObjective(objective)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, p := range sweepParams {
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q, want name=range", p)
		}
		values, err := optim.ParseRange(raw)
		if err != nil {
			return fmt.Errorf("--param %s: %w", name, err)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}

	g := optim.NewGridSearch(names, ranges)
	if maximize {
		g.Maximize()
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("sweeping", "model", base.Kind, "points", g.Size(), "objective", obj)

	res, err := optim.Sweep(ctx, base, g, obj, func(ec *sim.EnsembleConfig) {
		ec.Logger = logger
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(string(obj)))
	for _, e := range res.Evaluations {
		cols := make([]string, len(names))
		for i, name := range names {
			cols[i] = fmt.Sprintf("%g", e.Params[name])
		}
		value := fmt.Sprintf("%.6g", e.Value)
		if e.Err != nil {
			value = "error: " + e.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), value)
	}
	w.Flush()

	best := make([]string, len(names))
	for i, name := range names {
		best[i] = fmt.Sprintf("%s=%g", name, res.Best[name])
	}
	fmt.Printf("\nbest: %s  (%s = %.6g)\n", strings.Join(best, " "), obj, res.Value)
	return nil
}
