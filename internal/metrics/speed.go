package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/sim"
)

// MeanSpeed is the frame-averaged mean of |v|.
type MeanSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{name: "mean_speed"}
}

func (m *MeanSpeed) Name() string { return m.name }

func (m *MeanSpeed) Observe(g *physics.Gas, f sim.Frame) {
	if len(f.Speeds) == 0 {
		return
	}
	m.sum += stat.Mean(f.Speeds, nil)
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}

// RMSSpeed is the frame-averaged root mean square of |v|.
type RMSSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewRMSSpeed() *RMSSpeed {
	return &RMSSpeed{name: "rms_speed"}
}

func (r *RMSSpeed) Name() string { return r.name }

func (r *RMSSpeed) Observe(g *physics.Gas, f sim.Frame) {
	if len(f.Speeds) == 0 {
		return
	}
	r.sum += math.Sqrt(floats.Dot(f.Speeds, f.Speeds) / float64(len(f.Speeds)))
	r.samples++
}

func (r *RMSSpeed) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *RMSSpeed) Reset() {
	r.sum = 0
	r.samples = 0
}

// SpeedError is the relative error of the latest measured mean speed
// against the closed-form v_mean.
type SpeedError struct {
	name  string
	value float64
}

func NewSpeedError() *SpeedError {
	return &SpeedError{name: "speed_error"}
}

func (s *SpeedError) Name() string { return s.name }

func (s *SpeedError) Observe(g *physics.Gas, f sim.Frame) {
	if len(f.Speeds) == 0 {
		return
	}
	want := g.CharacteristicSpeeds().Mean
	s.value = math.Abs(stat.Mean(f.Speeds, nil)-want) / want
}

func (s *SpeedError) Value() float64 { return s.value }

func (s *SpeedError) Reset() { s.value = 0 }
