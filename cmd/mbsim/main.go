package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/mbsim/internal/analysis"
	"github.com/san-kum/mbsim/internal/config"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/experiment"
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/storage"
	"github.com/san-kum/mbsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	mode       string
	param      float64
	count      int
	frames     int
	seed       int64
	domainSize float64
	bins       int
	frameRate  int
	theme      string
	runName    string
	metricList []string
	gifPath    string
	outPath    string
	numRuns    int
	showSample bool
	jsonPath   string
	fitMin     float64
	fitMax     float64
	fitPoints  int

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mbsim",
		Short: "maxwell-boltzmann ideal gas simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return viz.RunInteractive(cfg, logger)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultData, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLevel, "log level (debug, info, warn, error)")
	addEnsembleFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an ensemble and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addEnsembleFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of advance steps")
	runCmd.Flags().StringVar(&runName, "name", "", "run id (default: mode and timestamp)")
	runCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to record (default set when empty)")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "also write the full run as JSON to this path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate the ensemble in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addEnsembleFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "color theme")
	liveCmd.Flags().StringVar(&gifPath, "gif", "", "recording output path")

	speedsCmd := &cobra.Command{
		Use:   "speeds",
		Short: "print the characteristic speeds",
		Args:  cobra.NoArgs,
		RunE:  printSpeeds,
	}
	addEnsembleFlags(speedsCmd)
	speedsCmd.Flags().BoolVar(&showSample, "sample", false, "compare against a sampled ensemble")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot speed distribution and particles of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "histogram bins")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export final particle speeds to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	figureCmd := &cobra.Command{
		Use:   "figure [run_id]",
		Short: "render the two-panel PNG figure of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  renderFigure,
	}
	figureCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.png)")
	figureCmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "histogram bins")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render particle positions of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [mode]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario of ensembles",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark advance steps across ensemble sizes",
		Args:  cobra.NoArgs,
		RunE:  benchEnsemble,
	}
	benchCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "advance steps per size")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare metrics across independently seeded ensembles",
		Args:  cobra.NoArgs,
		RunE:  compareSeeds,
	}
	addEnsembleFlags(compareCmd)
	compareCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of advance steps")
	compareCmd.Flags().IntVar(&numRuns, "runs", 8, "number of seeds")
	compareCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to compare (default set when empty)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [min] [max] [steps]",
		Short: "sweep the mode parameter and compare sample moments with theory",
		Args:  cobra.ExactArgs(3),
		RunE:  runSweep,
	}
	addEnsembleFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of advance steps")

	fitCmd := &cobra.Command{
		Use:   "fit [run_id]",
		Short: "estimate the temperature or mass of a run from its speeds",
		Args:  cobra.ExactArgs(1),
		RunE:  fitRun,
	}
	fitCmd.Flags().Float64Var(&fitMin, "min", 0, "lower end of the search grid (default: slider minimum)")
	fitCmd.Flags().Float64Var(&fitMax, "max", 0, "upper end of the search grid (default: slider maximum)")
	fitCmd.Flags().IntVar(&fitPoints, "points", 200, "grid points")

	rootCmd.AddCommand(runCmd, liveCmd, speedsCmd, listCmd, plotCmd, exportCmd, exportCSVCmd,
		exportJSONCmd, figureCmd, svgCmd, presetsCmd, scenarioCmd, benchCmd, compareCmd, sweepCmd, fitCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEnsembleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&mode, "mode", dynamo.Temperature.String(), "temperature or mass")
	cmd.Flags().Float64Var(&param, "param", config.DefaultParam, "temperature or mass value")
	cmd.Flags().IntVarP(&count, "count", "n", config.DefaultCount, "number of particles")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Float64Var(&domainSize, "size", dynamo.DefaultDomainSize, "box side length")
	cmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "histogram bins")
}

func setupLogger() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "mbsim",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	return nil
}

// resolveConfig layers defaults, preset, config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(mode, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(mode))
		}
		cfg = config.Resolve(p)
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		if cfg.DataDir != "" && !cmd.Flags().Changed("data") {
			dataDir = cfg.DataDir
		}
	}

	flags := cmd.Flags()
	if preset == "" && configFile == "" || flags.Changed("mode") {
		cfg.Mode = mode
	}
	if preset == "" && configFile == "" || flags.Changed("param") {
		cfg.Param = param
	}
	if preset == "" && configFile == "" || flags.Changed("count") {
		cfg.Count = count
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if flags.Changed("size") {
		cfg.DomainSize = domainSize
	}
	if flags.Changed("bins") {
		cfg.Bins = bins
	}
	if flags.Lookup("frames") != nil && (flags.Changed("frames") || configFile == "" && preset == "") {
		cfg.Frames = frames
	}
	if flags.Lookup("fps") != nil && flags.Changed("fps") {
		cfg.FPS = frameRate
	}
	if flags.Lookup("theme") != nil && flags.Changed("theme") {
		cfg.Theme = theme
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("configuration", "mode", cfg.Mode, "param", cfg.Param,
		"count", cfg.Count, "seed", cfg.Seed, "size", cfg.DomainSize)
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	var names []string
	if len(metricList) > 0 {
		names = metricList
	}
	metrics, err := registry.Metrics(names)
	if err != nil {
		return err
	}

	exp := experiment.New(expCfg, logger)
	if err := exp.Setup(metrics); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running ensemble", "mode", expCfg.Mode, expCfg.Mode.ParamName(), expCfg.Param,
		"count", expCfg.Count, "frames", expCfg.Frames)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	info := storage.RunInfo{
		Name:       runName,
		Mode:       expCfg.Mode,
		Param:      expCfg.Param,
		Count:      expCfg.Count,
		DomainSize: expCfg.DomainSize,
		Seed:       expCfg.Seed,
	}
	runID, err := st.Save(info, result)
	if err != nil {
		return err
	}
	if jsonPath != "" {
		info.Name = runID
		if err := storage.ExportJSON(jsonPath, info, result); err != nil {
			return err
		}
		logger.Info("json written", "path", jsonPath)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", result.Frames)
	for _, e := range result.Errors {
		logger.Warn("run error", "err", e)
	}

	summary, err := analysis.Summarize(result.Speeds, exp.Gas().Theory())
	if err != nil {
		return err
	}
	printSummary(summary)

	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, result.Metrics[name])
	}
	return w.Flush()
}

func printSummary(s analysis.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSPEED\tTHEORY\tSAMPLE\tREL ERR")
	fmt.Fprintf(w, "v_p\t%.4f\t-\t-\n", s.Theory.MostProbable)
	fmt.Fprintf(w, "v_mean\t%.4f\t%.4f\t%.2f%%\n", s.Theory.Mean, s.Mean, 100*s.MeanError)
	fmt.Fprintf(w, "v_rms\t%.4f\t%.4f\t%.2f%%\n", s.Theory.RMS, s.RMS, 100*s.RMSError)
	w.Flush()
	fmt.Printf("ks distance: %.4f (critical %.4f at n=%d)\n", s.KS, analysis.KSCritical(s.N), s.N)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := viz.OptionsFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	opts.GIFPath = gifPath
	return viz.Run(opts)
}

func printSpeeds(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.ParsedMode()
	if err != nil {
		return err
	}
	speeds, err := physics.CharacteristicSpeeds(m, cfg.Param)
	if err != nil {
		return err
	}

	fmt.Printf("%s = %g\n", m.ParamName(), cfg.Param)
	if !showSample {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "v_p\t%.4f\n", speeds.MostProbable)
		fmt.Fprintf(w, "v_mean\t%.4f\n", speeds.Mean)
		fmt.Fprintf(w, "v_rms\t%.4f\n", speeds.RMS)
		return w.Flush()
	}

	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}
	gas, err := experiment.NewGas(expCfg)
	if err != nil {
		return err
	}
	summary, err := analysis.Summarize(gas.Speeds(), gas.Theory())
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	modes := []string{dynamo.Temperature.String(), dynamo.Mass.String()}
	if len(args) == 1 {
		m, err := dynamo.ParseMode(args[0])
		if err != nil {
			return err
		}
		modes = []string{m.String()}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tPRESET\tPARAM\tCOUNT")
	for _, m := range modes {
		for _, name := range config.ListPresets(m) {
			p := config.Resolve(config.GetPreset(m, name))
			fmt.Fprintf(w, "%s\t%s\t%g\t%d\n", m, name, p.Param, p.Count)
		}
	}
	return w.Flush()
}
