package config

import "sort"

var Presets = map[string]map[string]*Config{
	"temperature": {
		"cold": {
			Mode: "temperature", Param: 0.5, Count: 10000, Frames: 500, DomainSize: 15, Bins: 50,
		},
		"room": {
			Mode: "temperature", Param: 1.0, Count: 10000, Frames: 500, DomainSize: 15, Bins: 50,
		},
		"hot": {
			Mode: "temperature", Param: 5.0, Count: 20000, Frames: 300, DomainSize: 15, Bins: 60,
		},
		"plasma": {
			Mode: "temperature", Param: 20.0, Count: 50000, Frames: 200, DomainSize: 15, Bins: 80,
		},
	},
	"mass": {
		"light": {
			Mode: "mass", Param: 0.1, Count: 10000, Frames: 300, DomainSize: 15, Bins: 60,
		},
		"unit": {
			Mode: "mass", Param: 1.0, Count: 10000, Frames: 500, DomainSize: 15, Bins: 50,
		},
		"heavy": {
			Mode: "mass", Param: 10.0, Count: 10000, Frames: 1000, DomainSize: 15, Bins: 40,
		},
	},
}

func GetPreset(mode, preset string) *Config {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	cfg, ok := modePresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

// ListPresets returns preset names for mode in sorted order.
func ListPresets(mode string) []string {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modePresets))
	for name := range modePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve fills the zero fields of a preset from DefaultConfig.
func Resolve(p *Config) *Config {
	cfg := DefaultConfig()
	if p == nil {
		return cfg
	}
	if p.Mode != "" {
		cfg.Mode = p.Mode
	}
	if p.Param != 0 {
		cfg.Param = p.Param
	}
	if p.Count != 0 {
		cfg.Count = p.Count
	}
	if p.Seed != 0 {
		cfg.Seed = p.Seed
	}
	if p.Frames != 0 {
		cfg.Frames = p.Frames
	}
	if p.DomainSize != 0 {
		cfg.DomainSize = p.DomainSize
	}
	if p.Bins != 0 {
		cfg.Bins = p.Bins
	}
	return cfg
}
