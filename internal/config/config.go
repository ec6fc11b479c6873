package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mbsim/internal/dynamo"
)

const (
	DefaultCount  = 10000
	DefaultParam  = 1.0
	DefaultFrames = 500
	DefaultBins   = 50
	DefaultFPS    = 30
	DefaultTheme  = "default"
	DefaultLevel  = "info"
	DefaultData   = "data"
)

type Config struct {
	Mode       string  `yaml:"mode"`
	Param      float64 `yaml:"param"`
	Count      int     `yaml:"count"`
	Seed       int64   `yaml:"seed"`
	Frames     int     `yaml:"frames"`
	DomainSize float64 `yaml:"domain_size"`
	Bins       int     `yaml:"bins"`
	FPS        int     `yaml:"fps"`
	Theme      string  `yaml:"theme"`
	LogLevel   string  `yaml:"log_level"`
	DataDir    string  `yaml:"data_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:       dynamo.Temperature.String(),
		Param:      DefaultParam,
		Count:      DefaultCount,
		Frames:     DefaultFrames,
		DomainSize: dynamo.DefaultDomainSize,
		Bins:       DefaultBins,
		FPS:        DefaultFPS,
		Theme:      DefaultTheme,
		LogLevel:   DefaultLevel,
		DataDir:    DefaultData,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParsedMode resolves the mode string.
func (c *Config) ParsedMode() (dynamo.Mode, error) {
	return dynamo.ParseMode(c.Mode)
}

// Validate checks the fields the engine depends on. It does not apply the
// interactive Bounds; any positive parameter and count are accepted.
func (c *Config) Validate() error {
	mode, err := c.ParsedMode()
	if err != nil {
		return err
	}
	if _, err := dynamo.Scale(mode, c.Param); err != nil {
		return err
	}
	if c.Count <= 0 {
		return fmt.Errorf("%w: %d", dynamo.ErrInvalidCount, c.Count)
	}
	if c.DomainSize != 0 {
		if err := dynamo.CheckPositive("domain_size", c.DomainSize); err != nil {
			return err
		}
	}
	if c.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", c.Frames)
	}
	if c.Bins <= 0 {
		return fmt.Errorf("bins must be positive, got %d", c.Bins)
	}
	return nil
}

// Range is an inclusive slider interval.
type Range struct {
	Min     float64
	Max     float64
	Step    float64
	Default float64
}

func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Bounds are the ranges offered by the interactive controls.
var Bounds = struct {
	Count       Range
	Temperature Range
	Mass        Range
}{
	Count:       Range{Min: 1000, Max: 100000, Step: 1000, Default: DefaultCount},
	Temperature: Range{Min: 0.1, Max: 20, Step: 0.1, Default: DefaultParam},
	Mass:        Range{Min: 0.1, Max: 10, Step: 0.1, Default: DefaultParam},
}

// ParamRange returns the control range for the parameter of mode.
func ParamRange(mode dynamo.Mode) Range {
	if mode == dynamo.Mass {
		return Bounds.Mass
	}
	return Bounds.Temperature
}
