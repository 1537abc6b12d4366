package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dosim/internal/analysis"
	"github.com/san-kum/dosim/internal/config"
	"github.com/san-kum/dosim/internal/diag"
	"github.com/san-kum/dosim/internal/export"
	"github.com/san-kum/dosim/internal/mc"
	"github.com/san-kum/dosim/internal/storage"
	"github.com/san-kum/dosim/internal/system"
	"github.com/san-kum/dosim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	quiet      bool
	verbose    bool

	// run/resume/watch flags, applied over the config only when set
	systemName  string
	methodName  string
	t0          float64
	seed        uint64
	moves       uint64
	energyBin   float64
	maxAtoms    int
	scale       float64
	addremove   float64
	target      float64
	cellWidth   float64
	lambda      float64
	latticeSize int
	reportEvery uint64
	movieTime   float64
	traceEvery  uint64
	saveEvery   uint64

	// plot/temps/export flags
	natoms   int
	plotHist bool
	outFile  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dosim",
		Short: "grand-canonical density-of-states Monte Carlo",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "preset configuration")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "only log warnings")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug detail")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a sampler",
		Args:  cobra.NoArgs,
		RunE:  runSampler,
	}
	addRunFlags(runCmd)

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().Uint64Var(&moves, "moves", 1_000_000, "additional moves")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the latest entropy frame",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&natoms, "natoms", 0, "atom count to plot")
	plotCmd.Flags().BoolVar(&plotHist, "hist", false, "plot the histogram instead of ln(w)")

	tempsCmd := &cobra.Command{
		Use:   "temps [run_id]",
		Short: "temperature estimates from the weight table",
		Args:  cobra.ExactArgs(1),
		RunE:  tempsRun,
	}
	tempsCmd.Flags().IntVar(&natoms, "natoms", 0, "atom count to scan")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "trace statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "latest frame as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&plotHist, "hist", false, "export the histogram instead of ln(w)")
	exportCSVCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "entropy curve as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&natoms, "natoms", 0, "atom count to render")
	exportSVGCmd.Flags().StringVar(&outFile, "out", "entropy.svg", "output file")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  watchSampler,
	}
	addRunFlags(watchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, resumeCmd, listCmd, plotCmd, tempsCmd,
		analyzeCmd, exportCSVCmd, exportSVGCmd, watchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&systemName, "system", config.DefaultSystem, "system to sample")
	cmd.Flags().StringVar(&methodName, "method", config.DefaultMethod, "weight-update method (samc or wl)")
	cmd.Flags().Float64Var(&t0, "t0", config.DefaultT0, "samc schedule parameter")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().Uint64Var(&moves, "moves", config.DefaultMaxMoves, "total moves")
	cmd.Flags().Float64Var(&energyBin, "bin", config.DefaultEnergyBin, "energy bin width")
	cmd.Flags().IntVar(&maxAtoms, "max-atoms", 0, "atom count cap (0 = unbounded)")
	cmd.Flags().Float64Var(&scale, "scale", config.DefaultScale, "initial translation scale")
	cmd.Flags().Float64Var(&addremove, "addremove", config.DefaultAddRemove, "add/remove move probability")
	cmd.Flags().Float64Var(&target, "target", 0, "target acceptance rate (0 = fixed probabilities)")
	cmd.Flags().Float64Var(&cellWidth, "cell", config.DefaultCellWidth, "periodic cell width (squarewell)")
	cmd.Flags().Float64Var(&lambda, "lambda", config.DefaultLambda, "well width in diameters (squarewell)")
	cmd.Flags().IntVar(&latticeSize, "lattice", config.DefaultLatticeSize, "lattice edge (latticegas)")
	cmd.Flags().Uint64Var(&reportEvery, "report-every", config.DefaultReportEvery, "progress log cadence")
	cmd.Flags().Float64Var(&movieTime, "movie-time", config.DefaultMovieTime, "movie frame time base (0 = off)")
	cmd.Flags().Uint64Var(&traceEvery, "trace-every", config.DefaultTraceEvery, "trace sample cadence (0 = off)")
	cmd.Flags().Uint64Var(&saveEvery, "save-every", config.DefaultSaveEvery, "checkpoint cadence (0 = end only)")
}

func buildLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the run configuration: defaults, then the config
// file, then the preset, then any explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
		cfg = p
	}

	set := map[string]func(){
		"system":       func() { cfg.System = systemName },
		"method":       func() { cfg.Method = methodName },
		"t0":           func() { cfg.T0 = t0 },
		"seed":         func() { cfg.Seed = seed },
		"moves":        func() { cfg.Moves = moves },
		"bin":          func() { cfg.Bin = energyBin },
		"max-atoms":    func() { cfg.MaxN = maxAtoms },
		"scale":        func() { cfg.Move.TranslationScale = scale },
		"addremove":    func() { cfg.Move.AddRemoveProbability = addremove },
		"target":       func() { cfg.Move.TargetAcceptance = target },
		"cell":         func() { cfg.Geom.CellWidth = cellWidth },
		"lambda":       func() { cfg.Geom.Lambda = lambda },
		"lattice":      func() { cfg.Geom.LatticeSize = latticeSize },
		"report-every": func() { cfg.Report.Every = reportEvery },
		"movie-time":   func() { cfg.Report.MovieTime = movieTime },
		"trace-every":  func() { cfg.Report.TraceEvery = traceEvery },
		"save-every":   func() { cfg.Report.SaveEvery = saveEvery },
	}
	for name, apply := range set {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	cfg.DataDir = dataDir
	return cfg, cfg.Validate()
}

func buildSampler(cfg *config.Config, log *slog.Logger) (*mc.Sampler, mc.System, error) {
	sys, err := system.New(cfg.System, cfg.Geom)
	if err != nil {
		return nil, nil, err
	}
	samp, err := mc.NewSampler(sys, mc.Params{
		SystemName: cfg.System,
		Method:     cfg.Method,
		T0:         cfg.T0,
		Seed:       cfg.Seed,
		EnergyBin:  cfg.Bin,
		MaxAtoms:   cfg.MaxN,
		Plan: mc.MovePlan{
			TranslationScale:     cfg.Move.TranslationScale,
			AddRemoveProbability: cfg.Move.AddRemoveProbability,
			TargetAcceptance:     cfg.Move.TargetAcceptance,
		},
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return samp, sys, nil
}

// attachHooks wires the run's diagnostics and checkpoint writer.
func attachHooks(samp *mc.Sampler, run *storage.Run, rep config.ReportConfig, log *slog.Logger) {
	samp.AddHook(diag.NewReport(rep.Every, log))
	if rep.MovieTime > 0 {
		samp.AddHook(diag.NewMovies(run.MovieDir(), rep.MovieTime))
	}
	if rep.TraceEvery > 0 {
		samp.AddHook(&diag.Trace{Path: run.TracePath(), Every: rep.TraceEvery})
	}
	if rep.SaveEvery > 0 {
		samp.AddHook(&diag.Saver{Every: rep.SaveEvery})
	}
	samp.SetSaveFunc(func(s *mc.Sampler) error {
		ck, err := s.Checkpoint()
		if err != nil {
			return err
		}
		return run.WriteCheckpoint(ck)
	})
}

func saveFinal(samp *mc.Sampler, run *storage.Run) error {
	ck, err := samp.Checkpoint()
	if err != nil {
		return err
	}
	return run.WriteCheckpoint(ck)
}

func runSampler(cmd *cobra.Command, args []string) error {
	log := buildLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	samp, _, err := buildSampler(cfg, log)
	if err != nil {
		return err
	}
	run, err := storage.New(cfg.DataDir).Create(cfg)
	if err != nil {
		return err
	}
	attachHooks(samp, run, cfg.Report, log)

	log.Info("starting run", "id", run.Meta.ID, "system", cfg.System,
		"method", cfg.Method, "moves", cfg.Moves, "seed", cfg.Seed)
	for samp.Moves < cfg.Moves && !samp.Done() {
		if err := samp.MoveOnce(); err != nil {
			return err
		}
	}
	if err := saveFinal(samp, run); err != nil {
		return err
	}

	log.Info("run finished", "id", run.Meta.ID, "moves", samp.Moves,
		"accepted", float64(samp.AcceptedMoves)/float64(samp.Moves),
		"states", samp.Bins.NumStates)
	fmt.Println(run.Meta.ID)
	return nil
}

func resumeRun(cmd *cobra.Command, args []string) error {
	log := buildLogger()
	run, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	ck, err := run.ReadCheckpoint()
	if err != nil {
		return err
	}
	samp, err := mc.Resume(ck, system.Blank, log)
	if err != nil {
		return err
	}

	rep := config.Default().Report
	if run.Meta.Config != nil {
		rep = run.Meta.Config.Report
	}
	attachHooks(samp, run, rep, log)

	limit := samp.Moves + moves
	log.Info("resuming run", "id", run.Meta.ID, "at", samp.Moves, "until", limit)
	for samp.Moves < limit && !samp.Done() {
		if err := samp.MoveOnce(); err != nil {
			return err
		}
	}
	if err := saveFinal(samp, run); err != nil {
		return err
	}
	log.Info("run finished", "id", run.Meta.ID, "moves", samp.Moves)
	return nil
}

func watchSampler(cmd *cobra.Command, args []string) error {
	log := buildLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	samp, sys, err := buildSampler(cfg, log)
	if err != nil {
		return err
	}
	run, err := storage.New(cfg.DataDir).Create(cfg)
	if err != nil {
		return err
	}
	// No progress logging under the TUI; the view shows the same
	// numbers live.
	attachHooks(samp, run, config.ReportConfig{
		MovieTime:  cfg.Report.MovieTime,
		TraceEvery: cfg.Report.TraceEvery,
		SaveEvery:  cfg.Report.SaveEvery,
	}, log)

	if err := viz.Run(samp, sys, cfg.Moves); err != nil {
		return err
	}
	if err := saveFinal(samp, run); err != nil {
		return err
	}
	fmt.Println(run.Meta.ID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tMETHOD\tMOVES\tSEED\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.System, r.Method, r.MaxMoves, r.Seed,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// frameRow picks the requested atom count's row out of a frame.
func frameRow(frame *storage.Frame, n int) ([]float64, error) {
	if n < 0 || n >= len(frame.Rows) {
		return nil, fmt.Errorf("atom count %d outside frame (0..%d)", n, len(frame.Rows)-1)
	}
	return frame.Rows[n], nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	prefix, label := "S", "ln(w)"
	if plotHist {
		prefix, label = "h", "histogram"
	}
	frame, err := run.LatestFrame(prefix)
	if err != nil {
		return err
	}
	row, err := frameRow(frame, natoms)
	if err != nil {
		return err
	}

	fmt.Printf("%s · %s vs energy at N=%d · move %d\n\n", run.Meta.ID, label, natoms, frame.Moves)
	fmt.Println(asciigraph.Plot(row,
		asciigraph.Height(16),
		asciigraph.Width(72),
		asciigraph.Caption(fmt.Sprintf("E from %g to %g",
			frame.Energies[0], frame.Energies[len(frame.Energies)-1]))))
	return nil
}

func tempsRun(cmd *cobra.Command, args []string) error {
	run, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	ck, err := run.ReadCheckpoint()
	if err != nil {
		return err
	}
	b := ck.Bins
	if natoms < 0 || natoms > b.MaxN {
		return fmt.Errorf("atom count %d outside grid (0..%d)", natoms, b.MaxN)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENERGY\tLN(W)\tVISITS\tT")
	for i, e := range b.Energies() {
		idx := natoms + i*(b.MaxN+1)
		if b.Histogram[idx] == 0 {
			continue
		}
		temp := b.Temperature(mc.State{E: e, N: natoms})
		ts := fmt.Sprintf("%.4g", temp)
		if temp >= 1e300 {
			ts = "-"
		}
		fmt.Fprintf(w, "%g\t%.4g\t%d\t%s\n", e, b.LnW[idx], b.Histogram[idx], ts)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	run, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	_, energy, natomsCol, err := run.ReadTrace()
	if err != nil {
		return err
	}
	if len(energy) == 0 {
		return fmt.Errorf("run %s has an empty trace", args[0])
	}

	ns := make([]float64, len(natomsCol))
	for i, n := range natomsCol {
		ns[i] = float64(n)
	}

	fmt.Printf("samples:        %d\n", len(energy))
	fmt.Printf("mean energy:    %.4f ± %.4f\n", analysis.Mean(energy), math.Sqrt(analysis.Variance(energy)))
	fmt.Printf("mean atoms:     %.3f\n", analysis.Mean(ns))
	fmt.Printf("autocorr time:  %.2f samples (energy)\n", analysis.IntegratedTime(energy))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	run, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	prefix := "S"
	if plotHist {
		prefix = "h"
	}
	frame, err := run.LatestFrame(prefix)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.FrameToCSV(out, frame)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	run, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	frame, err := run.LatestFrame("S")
	if err != nil {
		return err
	}
	row, err := frameRow(frame, natoms)
	if err != nil {
		return err
	}

	svg := export.CurveToSVG(frame.Energies, row, 800, 500, "#00ccff")
	if svg == "" {
		return fmt.Errorf("frame too small to render")
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Println(filepath.Clean(outFile))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, config.DescribePreset(name))
	}
	return w.Flush()
}
