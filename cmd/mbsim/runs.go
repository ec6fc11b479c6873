package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mbsim/internal/analysis"
	"github.com/san-kum/mbsim/internal/automation"
	"github.com/san-kum/mbsim/internal/config"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/experiment"
	"github.com/san-kum/mbsim/internal/export"
	"github.com/san-kum/mbsim/internal/optim"
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/storage"
)

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
	fmt.Fprintln(w, "ID\tMODE\tPARAM\tCOUNT\tFRAMES\tTIME\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%d\t%s\t%d\n",
			run.ID,
			run.Mode,
			run.Param,
			run.Count,
			run.Frames,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
		)
	}
	return w.Flush()
}

// loadRun returns the metadata, speeds and theoretical distribution of a run.
func loadRun(runID string) (*storage.RunMetadata, []float64, physics.Maxwell, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, physics.Maxwell{}, err
	}
	speeds, err := st.LoadSpeeds(runID)
	if err != nil {
		return nil, nil, physics.Maxwell{}, err
	}
	m, err := dynamo.ParseMode(meta.Mode)
	if err != nil {
		return nil, nil, physics.Maxwell{}, err
	}
	d, err := physics.NewMaxwell(m, meta.Param)
	if err != nil {
		return nil, nil, physics.Maxwell{}, err
	}
	return meta, speeds, d, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, speeds, d, err := loadRun(runID)
	if err != nil {
		return err
	}
	if len(speeds) == 0 {
		return fmt.Errorf("no data to plot")
	}
	m, _ := dynamo.ParseMode(meta.Mode)

	h, err := analysis.NewHistogram(speeds, bins, analysis.PlotRange(m, meta.Param))
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("%s: %g\n", m.ParamName(), meta.Param)
	fmt.Printf("particles: %d\n\n", len(speeds))

	graph := asciigraph.PlotMany([][]float64{h.Density, analysis.TheoryAtCenters(d, h)},
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(asciigraph.DeepSkyBlue, asciigraph.Red),
		asciigraph.SeriesLegends("simulation", "maxwell-boltzmann"),
		asciigraph.Caption("speed distribution"),
	)
	fmt.Println(graph)
	fmt.Println()

	summary, err := analysis.Summarize(speeds, d)
	if err != nil {
		return err
	}
	printSummary(summary)

	positions, err := storage.New(dataDir).LoadPositions(runID)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(analysis.ScatterToASCII(positions, meta.DomainSize, 60, 24))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	speeds, err := storage.New(dataDir).LoadSpeeds(args[0])
	if err != nil {
		return err
	}
	if len(speeds) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteSpeedsCSV(os.Stdout, speeds)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}
	return storage.WriteJSON(os.Stdout, data)
}

func renderFigure(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, speeds, _, err := loadRun(runID)
	if err != nil {
		return err
	}
	positions, err := storage.New(dataDir).LoadPositions(runID)
	if err != nil {
		return err
	}
	m, _ := dynamo.ParseMode(meta.Mode)

	path := outPath
	if path == "" {
		path = runID + ".png"
	}
	err = export.SaveFigure(path, export.FigureData{
		Positions:  positions,
		Speeds:     speeds,
		DomainSize: meta.DomainSize,
		Mode:       m,
		Param:      meta.Param,
		Bins:       bins,
	})
	if err != nil {
		return err
	}
	logger.Info("figure written", "path", path)
	return nil
}

func renderSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, speeds, d, err := loadRun(runID)
	if err != nil {
		return err
	}
	positions, err := storage.New(dataDir).LoadPositions(runID)
	if err != nil {
		return err
	}

	svg := export.ParticlesToSVG(positions, speeds, meta.DomainSize, 600, 2*d.RMS())
	if outPath == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("svg written", "path", outPath)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := automation.NewRunner(experiment.NewRegistry(), st, logger)
	results, err := runner.RunScenario(ctx, scenario)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODE\tPARAM\tFRAMES\tMEAN SPEED\tRUN")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%g\t%d\t%.4f\t%s\n",
			i+1, r.Step.Mode, r.Step.Param, r.Result.Frames, sampleMean(r.Result.Speeds), r.RunID)
	}
	return w.Flush()
}

func benchEnsemble(cmd *cobra.Command, args []string) error {
	sizes := []int{1000, 10000, 100000}

	fmt.Printf("benchmarking %d frames\n\n", frames)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tFRAMES\tTIME\tPARTICLE-STEPS/SEC")

	for _, n := range sizes {
		cfg := experiment.Config{
			Mode:   dynamo.Temperature,
			Param:  1,
			Count:  n,
			Frames: frames,
			Seed:   42,
		}
		exp := experiment.New(cfg, logger)
		if err := exp.Setup(nil); err != nil {
			return err
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		rate := float64(result.Frames*n) / elapsed.Seconds()

		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\n", n, result.Frames, elapsed, rate)
	}

	return w.Flush()
}

func compareSeeds(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	var names []string
	if len(metricList) > 0 {
		names = metricList
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := automation.NewRunner(experiment.NewRegistry(), nil, logger)
	stats, err := runner.RunEnsemble(ctx, expCfg, numRuns, names)
	if err != nil {
		return err
	}

	fmt.Printf("%d seeds from %d, %s=%g, %d particles\n\n",
		numRuns, expCfg.Seed, expCfg.Mode.ParamName(), expCfg.Param, expCfg.Count)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, s := range stats {
		lo, hi := s.Values[0], s.Values[0]
		for _, v := range s.Values {
			lo, hi = min(lo, v), max(hi, v)
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", s.Metric, s.Mean, s.StdDev, lo, hi)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.ParsedMode()
	if err != nil {
		return err
	}

	lo, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid max: %w", err)
	}
	steps, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid steps: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := automation.NewRunner(experiment.NewRegistry(), nil, logger)
	results, err := runner.RunSweep(ctx, &automation.ParameterSweep{
		Mode:       m,
		ParamMin:   lo,
		ParamMax:   hi,
		NumSteps:   steps,
		Count:      cfg.Count,
		DomainSize: cfg.DomainSize,
		Frames:     cfg.Frames,
		Seed:       cfg.Seed,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tV_P\tV_MEAN\tSAMPLE\tV_RMS\tSAMPLE\tKS\n", m.ParamName())
	means := make([]float64, len(results))
	for i, r := range results {
		means[i] = r.Summary.Mean
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", r.Param,
			r.Theory.MostProbable, r.Theory.Mean, r.Summary.Mean, r.Theory.RMS, r.Summary.RMS, r.Summary.KS)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(means) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(means,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("sample mean speed vs "+m.ParamName()),
		))
	}
	return nil
}

func fitRun(cmd *cobra.Command, args []string) error {
	meta, speeds, _, err := loadRun(args[0])
	if err != nil {
		return err
	}
	m, _ := dynamo.ParseMode(meta.Mode)

	r := config.ParamRange(m)
	lo, hi := r.Min, r.Max
	if cmd.Flags().Changed("min") {
		lo = fitMin
	}
	if cmd.Flags().Changed("max") {
		hi = fitMax
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, ks, err := optim.FitParam(ctx, speeds, m, lo, hi, fitPoints)
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("recorded %s: %g\n", m.ParamName(), meta.Param)
	fmt.Printf("fitted %s:   %g (ks %.4f)\n", m.ParamName(), best, ks)
	return nil
}

func sampleMean(speeds []float64) float64 {
	if len(speeds) == 0 {
		return 0
	}
	return stat.Mean(speeds, nil)
}
