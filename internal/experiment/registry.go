package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/mbsim/internal/metrics"
	"github.com/san-kum/mbsim/internal/sim"
)

type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() sim.Metric),
	}

	r.metrics["mean_speed"] = func() sim.Metric { return metrics.NewMeanSpeed() }
	r.metrics["rms_speed"] = func() sim.Metric { return metrics.NewRMSSpeed() }
	r.metrics["speed_error"] = func() sim.Metric { return metrics.NewSpeedError() }
	r.metrics["kinetic_energy"] = func() sim.Metric { return metrics.NewKineticEnergy() }
	r.metrics["energy_drift"] = func() sim.Metric { return metrics.NewEnergyDrift() }
	r.metrics["wall_pressure"] = func() sim.Metric { return metrics.NewWallPressure() }
	r.metrics["reflection_rate"] = func() sim.Metric { return metrics.NewReflectionRate() }
	r.metrics["containment"] = func() sim.Metric { return metrics.NewContainment() }

	return r
}

// Register adds or replaces a metric constructor.
func (r *Registry) Register(name string, fn func() sim.Metric) {
	r.metrics[name] = fn
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

// Metrics builds the named metrics; nil names means DefaultMetrics.
func (r *Registry) Metrics(names []string) ([]sim.Metric, error) {
	if names == nil {
		return r.DefaultMetrics(), nil
	}
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewMeanSpeed(),
		metrics.NewRMSSpeed(),
		metrics.NewSpeedError(),
		metrics.NewKineticEnergy(),
		metrics.NewWallPressure(),
	}
}
