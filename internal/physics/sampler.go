package physics

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/mbsim/internal/dynamo"
)

// Sampler draws particle velocities and positions from one random source.
// A Maxwell speed with scale a is a·sqrt(χ²₃).
type Sampler struct {
	src rand.Source
}

func NewSampler(src rand.Source) (*Sampler, error) {
	if src == nil {
		return nil, dynamo.ErrNilSource
	}
	return &Sampler{src: src}, nil
}

// Velocities draws count velocities with Maxwell speeds and uniform angles.
func (s *Sampler) Velocities(count int, scale float64) ([]r2.Vec, error) {
	if count <= 0 {
		return nil, dynamo.ErrInvalidCount
	}
	dst := make([]r2.Vec, count)
	if err := s.Fill(dst, scale); err != nil {
		return nil, err
	}
	return dst, nil
}

// Fill overwrites dst. All speeds are drawn before all angles.
func (s *Sampler) Fill(dst []r2.Vec, scale float64) error {
	if err := dynamo.CheckPositive("scale", scale); err != nil {
		return err
	}

	chi := distuv.ChiSquared{K: 3, Src: s.src}
	speeds := make([]float64, len(dst))
	for i := range speeds {
		speeds[i] = scale * math.Sqrt(chi.Rand())
	}

	angle := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: s.src}
	for i := range dst {
		sin, cos := math.Sincos(angle.Rand())
		dst[i] = r2.Vec{X: speeds[i] * cos, Y: speeds[i] * sin}
	}
	return nil
}

// Place scatters dst uniformly over [0, size]².
func (s *Sampler) Place(dst []r2.Vec, size float64) error {
	if err := dynamo.CheckPositive("domain_size", size); err != nil {
		return err
	}
	u := distuv.Uniform{Min: 0, Max: size, Src: s.src}
	for i := range dst {
		dst[i].X = u.Rand()
		dst[i].Y = u.Rand()
	}
	return nil
}
