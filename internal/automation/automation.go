package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/mbsim/internal/analysis"
	"github.com/san-kum/mbsim/internal/config"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/experiment"
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/sim"
	"github.com/san-kum/mbsim/internal/storage"
)

// Scenario defines a scripted sequence of ensemble runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario. Zero fields take defaults.
type ScenarioStep struct {
	Mode       string   `yaml:"mode"`
	Param      float64  `yaml:"param"`
	Count      int      `yaml:"count"`
	DomainSize float64  `yaml:"domain_size"`
	Frames     int      `yaml:"frames"`
	Seed       int64    `yaml:"seed"`
	Metrics    []string `yaml:"metrics"`
	SaveAs     string   `yaml:"save_as"`
}

func (s ScenarioStep) experimentConfig() (experiment.Config, error) {
	mode := dynamo.Temperature
	if s.Mode != "" {
		m, err := dynamo.ParseMode(s.Mode)
		if err != nil {
			return experiment.Config{}, err
		}
		mode = m
	}
	cfg := experiment.Config{
		Mode:          mode,
		Param:         s.Param,
		Count:         s.Count,
		DomainSize:    s.DomainSize,
		Frames:        s.Frames,
		Seed:          s.Seed,
		ValidateState: true,
	}
	if cfg.Param == 0 {
		cfg.Param = config.DefaultParam
	}
	if cfg.Count == 0 {
		cfg.Count = config.DefaultCount
	}
	if cfg.Frames == 0 {
		cfg.Frames = config.DefaultFrames
	}
	return cfg, nil
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step   ScenarioStep
	Result *sim.Result
	RunID  string
}

// Runner executes scenarios and sweeps. Store may be nil, in which case
// save_as is ignored.
type Runner struct {
	Registry *experiment.Registry
	Store    *storage.Store
	Logger   *log.Logger
}

func NewRunner(reg *experiment.Registry, store *storage.Store, logger *log.Logger) *Runner {
	if reg == nil {
		reg = experiment.NewRegistry()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Registry: reg, Store: store, Logger: logger}
}

func (r *Runner) runOne(ctx context.Context, cfg experiment.Config, names []string) (*sim.Result, error) {
	ms, err := r.Registry.Metrics(names)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg, r.Logger)
	if err := exp.Setup(ms); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

// RunScenario executes all steps in order and stops at the first failure.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.experimentConfig()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		r.Logger.Info("running step", "step", i+1, "of", len(scenario.Steps),
			"mode", cfg.Mode, cfg.Mode.ParamName(), cfg.Param, "count", cfg.Count)

		result, err := r.runOne(ctx, cfg, step.Metrics)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: step, Result: result}
		if step.SaveAs != "" && r.Store != nil {
			info := storage.RunInfo{
				Name: step.SaveAs, Mode: cfg.Mode, Param: cfg.Param,
				Count: cfg.Count, DomainSize: cfg.DomainSize, Seed: cfg.Seed,
			}
			id, err := r.Store.Save(info, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
			r.Logger.Info("saved run", "id", id)
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs one ensemble per evenly spaced parameter value.
type ParameterSweep struct {
	Mode       dynamo.Mode
	ParamMin   float64
	ParamMax   float64
	NumSteps   int
	Count      int
	DomainSize float64
	Frames     int
	Seed       int64
}

// SweepResult holds sample moments against theory for one parameter value.
type SweepResult struct {
	Param   float64
	Theory  physics.Speeds
	Summary analysis.Summary
}

// Values returns the parameter grid, inclusive of both ends.
func (s *ParameterSweep) Values() ([]float64, error) {
	if s.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", s.NumSteps)
	}
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}, nil
	}
	vals := make([]float64, s.NumSteps)
	step := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	for i := range vals {
		vals[i] = s.ParamMin + float64(i)*step
	}
	return vals, nil
}

func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	vals, err := sweep.Values()
	if err != nil {
		return nil, err
	}
	results := make([]SweepResult, 0, len(vals))

	for i, v := range vals {
		cfg := experiment.Config{
			Mode:       sweep.Mode,
			Param:      v,
			Count:      sweep.Count,
			DomainSize: sweep.DomainSize,
			Frames:     sweep.Frames,
			Seed:       sweep.Seed,
		}
		result, err := r.runOne(ctx, cfg, []string{})
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Mode.ParamName(), v, err)
		}
		scale, _ := dynamo.Scale(sweep.Mode, v)
		summary, err := analysis.Summarize(result.Speeds, physics.Maxwell{Scale: scale})
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{Param: v, Theory: result.Theory, Summary: summary})

		r.Logger.Info("sweep", "step", i+1, "of", len(vals), sweep.Mode.ParamName(), v,
			"mean", summary.Mean, "theory", summary.Theory.Mean)
	}

	return results, nil
}

// EnsembleStats aggregates one metric across independently seeded runs.
type EnsembleStats struct {
	Runs   int
	Metric string
	Values []float64
	Mean   float64
	StdDev float64
}

// RunEnsemble runs cfg once per seed in [cfg.Seed, cfg.Seed+runs) in
// parallel and collects every registered metric named in names.
func (r *Runner) RunEnsemble(ctx context.Context, cfg experiment.Config, runs int, names []string) ([]EnsembleStats, error) {
	ens := sim.NewEnsemble(experiment.Builder(cfg, r.Registry, names, r.Logger), runs, cfg.Seed)
	results, err := ens.Run(ctx, sim.Config{Frames: cfg.Frames, ValidateState: cfg.ValidateState})
	if err != nil {
		return nil, err
	}
	if names == nil {
		for _, m := range r.Registry.DefaultMetrics() {
			names = append(names, m.Name())
		}
	}

	stats := make([]EnsembleStats, 0, len(names))
	for _, name := range names {
		vals := make([]float64, len(results))
		for i, res := range results {
			vals[i] = res.Metrics[name]
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			std = 0
		}
		stats = append(stats, EnsembleStats{Runs: len(vals), Metric: name, Values: vals, Mean: mean, StdDev: std})
	}
	r.Logger.Debug("ensemble finished", "runs", runs, "metrics", len(stats))
	return stats, nil
}
