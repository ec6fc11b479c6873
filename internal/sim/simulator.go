package sim

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
)

type Simulator struct {
	gas       *physics.Gas
	metrics   []Metric
	observers []Observer
	speeds    *SpeedPool
	logger    *log.Logger
}

// New wraps gas. A nil logger discards output.
func New(gas *physics.Gas, logger *log.Logger) *Simulator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Simulator{
		gas:       gas,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		speeds:    NewSpeedPool(gas.Count()),
		logger:    logger,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Gas() *physics.Gas { return s.gas }

// Run advances the gas cfg.Frames times. The gas must be initialized.
// On cancellation the partial result is returned together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if s.gas.Phase() != physics.Active {
		return nil, dynamo.ErrNotInitialized
	}

	result := &Result{
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run starting",
		"mode", s.gas.Mode(), "param", s.gas.Param(),
		"count", s.gas.Count(), "frames", cfg.Frames)

	buf := s.speeds.Get()
	defer s.speeds.Put(buf)

	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			s.logger.Warn("run cancelled", "frame", i)
			return result, ctx.Err()
		default:
		}

		s.gas.Advance()

		if cfg.ValidateState && !s.gas.Finite() {
			err := dynamo.SimError{
				Frame:   i,
				Time:    s.gas.Elapsed(),
				Message: "invalid state (NaN/Inf)",
				Wrapped: dynamo.ErrInvalidState,
			}
			result.Errors = append(result.Errors, err)
			s.logger.Error("state check failed", "frame", i, "err", err)
			break
		}

		buf = s.gas.SpeedsInto(buf)
		frame := Frame{
			Index:       i,
			Time:        s.gas.Elapsed(),
			Speeds:      buf,
			Reflections: s.gas.Reflections(),
			Impulse:     s.gas.Impulse(),
		}
		for _, m := range s.metrics {
			m.Observe(s.gas, frame)
		}
		for _, obs := range s.observers {
			obs.OnFrame(s.gas, frame)
		}
		if cfg.RecordEvery > 0 && i%cfg.RecordEvery == 0 {
			snap := make([]float64, len(buf))
			copy(snap, buf)
			result.History = append(result.History, Snapshot{Frame: i, Time: frame.Time, Speeds: snap})
		}

		result.Frames++
	}

	s.finish(result)
	s.logger.Debug("run finished",
		"frames", result.Frames, "reflections", result.Reflections)
	return result, nil
}

func (s *Simulator) finish(result *Result) {
	result.Elapsed = s.gas.Elapsed()
	result.Speeds = s.gas.Speeds()
	result.Positions = s.gas.Positions()
	result.Theory = s.gas.CharacteristicSpeeds()
	result.Reflections = s.gas.Reflections()
	result.Impulse = s.gas.Impulse()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("record interval must not be negative, got %d", cfg.RecordEvery)
	}
	return nil
}

// RunWithCallback advances frame by frame until cfg.Frames is reached,
// the callback returns false, or ctx is done. Frames 0 runs until stopped.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(*physics.Gas, Frame) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	if s.gas.Phase() != physics.Active {
		return dynamo.ErrNotInitialized
	}

	buf := s.speeds.Get()
	defer s.speeds.Put(buf)

	for i := 0; cfg.Frames == 0 || i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.gas.Advance()

		if cfg.ValidateState && !s.gas.Finite() {
			return dynamo.SimError{Frame: i, Time: s.gas.Elapsed(), Message: "invalid state (NaN/Inf)", Wrapped: dynamo.ErrInvalidState}
		}

		buf = s.gas.SpeedsInto(buf)
		if !callback(s.gas, Frame{Index: i, Time: s.gas.Elapsed(), Speeds: buf, Reflections: s.gas.Reflections(), Impulse: s.gas.Impulse()}) {
			return nil
		}
	}
	return nil
}
