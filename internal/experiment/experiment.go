package experiment

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"

	"github.com/san-kum/mbsim/internal/config"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/sim"
)

type Config struct {
	Mode          dynamo.Mode
	Param         float64
	Count         int
	DomainSize    float64
	Frames        int
	Seed          int64
	RecordEvery   int
	ValidateState bool
}

// FromConfig converts a validated file/flag configuration.
func FromConfig(c *config.Config) (Config, error) {
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	mode, _ := c.ParsedMode()
	return Config{
		Mode:          mode,
		Param:         c.Param,
		Count:         c.Count,
		DomainSize:    c.DomainSize,
		Frames:        c.Frames,
		Seed:          c.Seed,
		ValidateState: true,
	}, nil
}

func (c Config) gasConfig() physics.Config {
	return physics.Config{Count: c.Count, Mode: c.Mode, Param: c.Param, DomainSize: c.DomainSize}
}

type Experiment struct {
	cfg       Config
	gas       *physics.Gas
	simulator *sim.Simulator
	logger    *log.Logger
}

func New(cfg Config, logger *log.Logger) *Experiment {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Experiment{cfg: cfg, logger: logger}
}

// Setup builds the gas from a source seeded with cfg.Seed, samples its
// velocities and attaches metrics.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	gas, err := NewGas(e.cfg)
	if err != nil {
		return err
	}
	e.gas = gas
	e.simulator = sim.New(gas, e.logger)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	e.logger.Debug("experiment ready",
		"mode", e.cfg.Mode, e.cfg.Mode.ParamName(), e.cfg.Param,
		"count", e.cfg.Count, "seed", e.cfg.Seed)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	return e.simulator.Run(ctx, sim.Config{
		Frames:        e.cfg.Frames,
		ValidateState: e.cfg.ValidateState,
		RecordEvery:   e.cfg.RecordEvery,
	})
}

func (e *Experiment) Config() Config { return e.cfg }

func (e *Experiment) Gas() *physics.Gas { return e.gas }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// NewGas constructs and initializes a gas for cfg with a deterministic source.
func NewGas(cfg Config) (*physics.Gas, error) {
	gas, err := physics.NewGas(cfg.gasConfig(), rand.NewSource(uint64(cfg.Seed)))
	if err != nil {
		return nil, err
	}
	if err := gas.Initialize(); err != nil {
		return nil, err
	}
	return gas, nil
}

// Builder returns a sim.Builder that reuses cfg with a different seed per
// run and fresh metrics from reg.
func Builder(cfg Config, reg *Registry, names []string, logger *log.Logger) sim.Builder {
	return func(seed int64) (*sim.Simulator, error) {
		c := cfg
		c.Seed = seed
		ms, err := reg.Metrics(names)
		if err != nil {
			return nil, err
		}
		e := New(c, logger)
		if err := e.Setup(ms); err != nil {
			return nil, err
		}
		return e.GetSimulator(), nil
	}
}
