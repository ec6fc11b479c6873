package physics

import (
	"math"

	"github.com/san-kum/mbsim/internal/dynamo"
)

// Maxwell is the speed distribution with scale parameter a:
//
//	f(v) = sqrt(2/π) · v² · exp(-v²/(2a²)) / a³,  v ≥ 0
type Maxwell struct {
	Scale float64
}

// Speeds holds the three characteristic speeds of a Maxwell distribution.
type Speeds struct {
	MostProbable float64 `json:"most_probable"`
	Mean         float64 `json:"mean"`
	RMS          float64 `json:"rms"`
}

// NewMaxwell builds the distribution for a mode and physical parameter.
func NewMaxwell(mode dynamo.Mode, param float64) (Maxwell, error) {
	scale, err := dynamo.Scale(mode, param)
	if err != nil {
		return Maxwell{}, err
	}
	return Maxwell{Scale: scale}, nil
}

func (d Maxwell) PDF(v float64) float64 {
	if v < 0 {
		return 0
	}
	a := d.Scale
	return math.Sqrt(2/math.Pi) * v * v * math.Exp(-v*v/(2*a*a)) / (a * a * a)
}

func (d Maxwell) CDF(v float64) float64 {
	if v <= 0 {
		return 0
	}
	a := d.Scale
	return math.Erf(v/(math.Sqrt2*a)) - math.Sqrt(2/math.Pi)*v*math.Exp(-v*v/(2*a*a))/a
}

func (d Maxwell) MostProbable() float64 { return math.Sqrt2 * d.Scale }
func (d Maxwell) Mean() float64         { return 2 * math.Sqrt(2/math.Pi) * d.Scale }
func (d Maxwell) RMS() float64          { return math.Sqrt(3) * d.Scale }

func (d Maxwell) Speeds() Speeds {
	return Speeds{
		MostProbable: d.MostProbable(),
		Mean:         d.Mean(),
		RMS:          d.RMS(),
	}
}

// CharacteristicSpeeds returns (v_p, v_mean, v_rms) for a configuration.
// The values are closed-form and independent of any live ensemble.
func CharacteristicSpeeds(mode dynamo.Mode, param float64) (Speeds, error) {
	d, err := NewMaxwell(mode, param)
	if err != nil {
		return Speeds{}, err
	}
	return d.Speeds(), nil
}
