package main

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/mlowitz/modetrack/internal/analysis"
	"github.com/mlowitz/modetrack/internal/config"
	"github.com/mlowitz/modetrack/internal/metrics"
	"github.com/mlowitz/modetrack/internal/modes"
	"github.com/mlowitz/modetrack/internal/storage"
	"github.com/mlowitz/modetrack/internal/stream"
	"github.com/mlowitz/modetrack/internal/sysid"
	"github.com/mlowitz/modetrack/internal/track"
)

var (
	dataDir string
	verbose bool

	dt         float64
	steps      int
	noise      float64
	seed       int64
	window     int
	forgetting float64
	ridge      float64
	condLimit  float64
	skip       bool

	dim    int
	omega  float64
	rate   float64
	growth float64
	radius float64

	configFile string
	preset     string
	inputFile  string
	outputFile string
	coord      int
)

// main registers the CLI commands and dispatches to the subcommand handlers.
func main() {
	rootCmd := &cobra.Command{
		Use:   "modetrack",
		Short: "sliding-window modal tracking for streaming dynamics",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".modetrack", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log per-step diagnostics")

	trackCmd := &cobra.Command{
		Use:   "track [system]",
		Short: "track the modes of a snapshot stream",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrack,
	}
	trackCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sampling interval")
	trackCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of snapshot pairs")
	trackCmd.Flags().Float64Var(&noise, "noise", 0.0, "observation noise level")
	trackCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	trackCmd.Flags().IntVar(&window, "window", config.DefaultWindow, "sliding window length")
	trackCmd.Flags().Float64Var(&forgetting, "rho", config.DefaultForgetting, "forgetting factor")
	trackCmd.Flags().Float64Var(&ridge, "ridge", 0.0, "ridge regularization for the initial fit")
	trackCmd.Flags().Float64Var(&condLimit, "cond-limit", 0.0, "conditioning acceptance limit (0 = default)")
	trackCmd.Flags().BoolVar(&skip, "skip", true, "skip ill-conditioned samples instead of halting")
	trackCmd.Flags().IntVar(&dim, "dim", config.DefaultDim, "state dimension (random)")
	trackCmd.Flags().Float64Var(&omega, "omega", config.DefaultOmega, "angular frequency")
	trackCmd.Flags().Float64Var(&rate, "rate", 0.0, "frequency drift per unit time (drift)")
	trackCmd.Flags().Float64Var(&growth, "growth", 0.0, "exponential growth rate (damped)")
	trackCmd.Flags().Float64Var(&radius, "radius", config.DefaultRadius, "spectral radius (random)")
	trackCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	trackCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	trackCmd.Flags().StringVar(&inputFile, "input", "", "track a recorded CSV stream instead of a synthetic one")

	genCmd := &cobra.Command{
		Use:   "gen [system]",
		Short: "generate a snapshot stream as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runGen,
	}
	genCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sampling interval")
	genCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of snapshot pairs")
	genCmd.Flags().Float64Var(&noise, "noise", 0.0, "observation noise level")
	genCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	genCmd.Flags().IntVar(&dim, "dim", config.DefaultDim, "state dimension (random)")
	genCmd.Flags().Float64Var(&omega, "omega", config.DefaultOmega, "angular frequency")
	genCmd.Flags().Float64Var(&rate, "rate", 0.0, "frequency drift per unit time (drift)")
	genCmd.Flags().Float64Var(&growth, "growth", 0.0, "exponential growth rate (damped)")
	genCmd.Flags().Float64Var(&radius, "radius", config.DefaultRadius, "spectral radius (random)")
	genCmd.Flags().StringVar(&outputFile, "output", "", "write to a file instead of stdout")

	eigCmd := &cobra.Command{
		Use:   "eig [run_id]",
		Short: "print the mode history of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showModes,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outputFile, "output", "", "write to a file instead of stdout")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare incremental updates against batch refits",
		RunE:  benchEstimators,
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [system]",
		Short: "fft cross-check of the dominant stream frequency",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSpectrum,
	}
	spectrumCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sampling interval")
	spectrumCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of snapshot pairs")
	spectrumCmd.Flags().Float64Var(&noise, "noise", 0.0, "observation noise level")
	spectrumCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	spectrumCmd.Flags().IntVar(&dim, "dim", config.DefaultDim, "state dimension (random)")
	spectrumCmd.Flags().Float64Var(&omega, "omega", config.DefaultOmega, "angular frequency")
	spectrumCmd.Flags().Float64Var(&rate, "rate", 0.0, "frequency drift per unit time (drift)")
	spectrumCmd.Flags().Float64Var(&growth, "growth", 0.0, "exponential growth rate (damped)")
	spectrumCmd.Flags().Float64Var(&radius, "radius", config.DefaultRadius, "spectral radius (random)")
	spectrumCmd.Flags().StringVar(&inputFile, "input", "", "analyze a recorded CSV stream")
	spectrumCmd.Flags().IntVar(&coord, "coord", 0, "state coordinate to analyze")

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets for a system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for system: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list available synthetic systems",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range stream.NewRegistry().List() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(trackCmd, genCmd, eigCmd, listCmd, exportCmd, benchCmd, spectrumCmd, presetsCmd, systemsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTrack(cmd *cobra.Command, args []string) error {
	system := ""
	if len(args) > 0 {
		system = args[0]
	}

	if preset != "" {
		if system == "" {
			return fmt.Errorf("--preset needs a system name")
		}
		p := config.GetPreset(system, preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system))
		}
		applyPreset(p)
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyConfigFile(cmd, cfg)
		if system == "" {
			system = cfg.System.Name
		}
	}

	if system == "" && inputFile == "" {
		return fmt.Errorf("need a system name or --input file")
	}

	var pairs []stream.Pair
	if inputFile != "" {
		recorded, fileDt, err := readPairs(inputFile)
		if err != nil {
			return err
		}
		pairs = recorded
		if !cmd.Flags().Changed("dt") && fileDt > 0 {
			dt = fileDt
		}
		if system == "" {
			system = "recorded"
		}
	} else {
		reg := stream.NewRegistry()
		sys, err := reg.Get(system, streamParams())
		if err != nil {
			return err
		}
		pairs, err = stream.Generate(sys, onesVec(sys.Dim()), steps, noise, seed)
		if err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	tcfg := track.Config{
		Window:             window,
		Forgetting:         forgetting,
		Ridge:              ridge,
		CondLimit:          condLimit,
		Dt:                 dt,
		SkipIllConditioned: skip,
	}

	tk := track.New(tcfg)
	tk.AddMetric(metrics.NewResidualMean())
	tk.AddMetric(metrics.NewResidualMax())
	tk.AddMetric(metrics.NewSpectralPeak())
	tk.AddMetric(metrics.NewStability(1.0))
	tk.AddMetric(metrics.NewOperatorDrift())

	fmt.Printf("tracking %s stream...\n", system)
	start := time.Now()

	result, err := tk.Run(context.Background(), stream.NewSliceSource(pairs))
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(system, tcfg, seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("estimates: %d (skipped %d)\n", result.Steps, result.Skipped)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	if len(result.Eigs) > 0 {
		last := result.Eigs[len(result.Eigs)-1]
		freqs := modes.Frequencies(last)
		grows := modes.GrowthRates(last)

		fmt.Println("\nfinal modes:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODE\tOMEGA\tFREQ(HZ)\tGROWTH")
		for i, l := range last {
			fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\n", i, imag(l), freqs[i], grows[i])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func applyPreset(p *config.Config) {
	dt = p.Dt
	steps = p.Steps
	noise = p.Noise
	seed = p.Seed
	window = p.Estimator.Window
	forgetting = p.Estimator.Forgetting
	ridge = p.Estimator.Ridge
	condLimit = p.Estimator.CondLimit
	skip = p.Estimator.SkipIllConditioned
	dim = p.System.Dim
	omega = p.System.Omega
	rate = p.System.Rate
	growth = p.System.Growth
	radius = p.System.Radius
}

func applyConfigFile(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("dt") {
		dt = cfg.Dt
	}
	if !cmd.Flags().Changed("steps") {
		steps = cfg.Steps
	}
	if !cmd.Flags().Changed("noise") {
		noise = cfg.Noise
	}
	if cfg.Seed != 0 && !cmd.Flags().Changed("seed") {
		seed = cfg.Seed
	}
	if !cmd.Flags().Changed("window") {
		window = cfg.Estimator.Window
	}
	if !cmd.Flags().Changed("rho") {
		forgetting = cfg.Estimator.Forgetting
	}
	if !cmd.Flags().Changed("ridge") {
		ridge = cfg.Estimator.Ridge
	}
	if !cmd.Flags().Changed("cond-limit") {
		condLimit = cfg.Estimator.CondLimit
	}
	if !cmd.Flags().Changed("skip") {
		skip = cfg.Estimator.SkipIllConditioned
	}
	if !cmd.Flags().Changed("dim") {
		dim = cfg.System.Dim
	}
	if !cmd.Flags().Changed("omega") {
		omega = cfg.System.Omega
	}
	if !cmd.Flags().Changed("rate") {
		rate = cfg.System.Rate
	}
	if !cmd.Flags().Changed("growth") {
		growth = cfg.System.Growth
	}
	if !cmd.Flags().Changed("radius") {
		radius = cfg.System.Radius
	}
}

func streamParams() stream.Params {
	return stream.Params{
		Dim:    dim,
		Omega:  omega,
		Rate:   rate,
		Growth: growth,
		Radius: radius,
		Dt:     dt,
		Seed:   seed,
	}
}

func onesVec(n int) *mat.VecDense {
	x := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.SetVec(i, 1)
	}
	return x
}

func readPairs(path string) ([]stream.Pair, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return stream.ReadCSV(f)
}

func runGen(cmd *cobra.Command, args []string) error {
	reg := stream.NewRegistry()
	sys, err := reg.Get(args[0], streamParams())
	if err != nil {
		return err
	}
	pairs, err := stream.Generate(sys, onesVec(sys.Dim()), steps, noise, seed)
	if err != nil {
		return err
	}

	if outputFile == "" {
		return stream.WriteCSV(os.Stdout, pairs, dt)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := stream.WriteCSV(f, pairs, dt); err != nil {
		return err
	}
	fmt.Printf("wrote %d pairs to %s\n", len(pairs), outputFile)
	return nil
}

func showModes(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	times, eigs, residuals, err := st.LoadModes(args[0])
	if err != nil {
		return err
	}
	if len(eigs) == 0 {
		return fmt.Errorf("no recorded estimates")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("system: %s\n", meta.System)
	fmt.Printf("estimates: %d (skipped %d)\n\n", meta.Steps, meta.Skipped)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "TIME\tRESIDUAL"
	for i := range eigs[0] {
		header += fmt.Sprintf("\tOMEGA%d\tGROWTH%d", i, i)
	}
	fmt.Fprintln(w, header)

	for i := range eigs {
		row := fmt.Sprintf("%.4f\t%.3e", times[i], residuals[i])
		for _, l := range eigs[i] {
			row += fmt.Sprintf("\t%.4f\t%.4f", imag(l), real(l))
		}
		fmt.Fprintln(w, row)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	last := eigs[len(eigs)-1]
	freqs := modes.Frequencies(last)
	grows := modes.GrowthRates(last)

	fmt.Println("\nfinal estimate:")
	fw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(fw, "MODE\tDISCRETE\tOMEGA\tFREQ(HZ)\tGROWTH")
	for i, l := range last {
		d := cmplx.Exp(l * complex(meta.Dt, 0))
		fmt.Fprintf(fw, "%d\t%.4f%+.4fi\t%.4f\t%.4f\t%.4f\n", i, real(d), imag(d), imag(l), freqs[i], grows[i])
	}
	return fw.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tWINDOW\tRHO\tDT\tSTEPS\tSKIPPED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3f\t%.4fs\t%d\t%d\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Window,
			run.Forgetting,
			run.Dt,
			run.Steps,
			run.Skipped,
		)
	}

	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	times, eigs, residuals, err := st.LoadModes(args[0])
	if err != nil {
		return err
	}

	result := &track.Result{
		Steps:     meta.Steps,
		Skipped:   meta.Skipped,
		Times:     times,
		Eigs:      eigs,
		Residuals: residuals,
		Metrics:   meta.Metrics,
	}
	cfg := track.Config{Window: meta.Window, Forgetting: meta.Forgetting, Dt: meta.Dt}

	if outputFile != "" {
		if err := storage.ExportJSON(outputFile, meta.System, cfg, result); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", outputFile)
		return nil
	}
	return storage.ExportJSONStdout(meta.System, cfg, result)
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	var pairs []stream.Pair
	if inputFile != "" {
		recorded, fileDt, err := readPairs(inputFile)
		if err != nil {
			return err
		}
		pairs = recorded
		if !cmd.Flags().Changed("dt") && fileDt > 0 {
			dt = fileDt
		}
	} else {
		if len(args) == 0 {
			return fmt.Errorf("need a system name or --input file")
		}
		reg := stream.NewRegistry()
		sys, err := reg.Get(args[0], streamParams())
		if err != nil {
			return err
		}
		pairs, err = stream.Generate(sys, onesVec(sys.Dim()), steps, noise, seed)
		if err != nil {
			return err
		}
	}

	data, err := analysis.Series(pairs, coord)
	if err != nil {
		return err
	}
	freq, err := analysis.DominantFrequency(data, dt)
	if err != nil {
		return err
	}

	fmt.Printf("samples: %d\n", len(data))
	fmt.Printf("dominant frequency: %.4f hz\n", freq)
	fmt.Printf("angular frequency: %.4f rad/s\n", 2*math.Pi*freq)
	if freq > 0 {
		fmt.Printf("period: %.4f s\n", 1.0/freq)
	}

	return nil
}

func benchEstimators(cmd *cobra.Command, args []string) error {
	const iters = 256

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tWINDOW\tUPDATE\tREFIT\tONLINE\tREFIT/UPDATE")

	for _, n := range []int{4, 8, 16, 32} {
		win := 4 * n

		sys, err := stream.NewRandomStable(n, 0.9, 42)
		if err != nil {
			return err
		}
		pairs, err := stream.Generate(sys, onesVec(n), win+iters, 1e-3, 43)
		if err != nil {
			return err
		}

		est, err := sysid.NewWindow(n, win, 0.99)
		if err != nil {
			return err
		}
		xb, yb := blockPair(pairs[:win])
		if err := est.Fit(xb, yb); err != nil {
			return err
		}

		start := time.Now()
		for k := 0; k < iters; k++ {
			if err := est.Update(pairs[win+k].X, pairs[win+k].Y); err != nil {
				return err
			}
		}
		update := time.Since(start) / iters

		start = time.Now()
		for k := 0; k < iters; k++ {
			rx, ry := blockPair(pairs[k+1 : k+1+win])
			if _, err := sysid.FitOperator(rx, ry, 0.99, 0); err != nil {
				return err
			}
		}
		refit := time.Since(start) / iters

		on, err := sysid.NewOnline(n, 0.99)
		if err != nil {
			return err
		}
		if err := on.Fit(xb, yb); err != nil {
			return err
		}
		start = time.Now()
		for k := 0; k < iters; k++ {
			if err := on.Update(pairs[win+k].X, pairs[win+k].Y); err != nil {
				return err
			}
		}
		online := time.Since(start) / iters

		fmt.Fprintf(w, "%d\t%d\t%v\t%v\t%v\t%.1fx\n",
			n, win, update, refit, online, float64(refit)/float64(update))
	}

	return w.Flush()
}

func blockPair(pairs []stream.Pair) (*mat.Dense, *mat.Dense) {
	n := pairs[0].Dim()
	x := mat.NewDense(n, len(pairs), nil)
	y := mat.NewDense(n, len(pairs), nil)
	for j, p := range pairs {
		for i := 0; i < n; i++ {
			x.Set(i, j, p.X.AtVec(i))
			y.Set(i, j, p.Y.AtVec(i))
		}
	}
	return x, y
}
