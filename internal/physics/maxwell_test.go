package physics

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/san-kum/mbsim/internal/dynamo"
)

func TestCharacteristicSpeeds(t *testing.T) {
	tests := []struct {
		name            string
		mode            dynamo.Mode
		param           float64
		vp, vmean, vrms float64
	}{
		{"T=1", dynamo.Temperature, 1.0, math.Sqrt2, 2 * math.Sqrt(2/math.Pi), math.Sqrt(3)},
		{"T=2", dynamo.Temperature, 2.0, 2.828427, 3.191538, 3.464102},
		{"m=4", dynamo.Mass, 4.0, 0.707107, 0.797885, 0.866025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CharacteristicSpeeds(tt.mode, tt.param)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got.MostProbable-tt.vp) > 1e-5 {
				t.Errorf("v_p = %f, want %f", got.MostProbable, tt.vp)
			}
			if math.Abs(got.Mean-tt.vmean) > 1e-5 {
				t.Errorf("v_mean = %f, want %f", got.Mean, tt.vmean)
			}
			if math.Abs(got.RMS-tt.vrms) > 1e-5 {
				t.Errorf("v_rms = %f, want %f", got.RMS, tt.vrms)
			}
		})
	}
}

func TestCharacteristicSpeeds_Ordering(t *testing.T) {
	for _, param := range []float64{0.1, 0.5, 1, 3.7, 20} {
		for _, mode := range []dynamo.Mode{dynamo.Temperature, dynamo.Mass} {
			s, err := CharacteristicSpeeds(mode, param)
			if err != nil {
				t.Fatalf("%v %v: %v", mode, param, err)
			}
			if !(s.MostProbable < s.Mean && s.Mean < s.RMS) {
				t.Errorf("%v %v: expected v_p < v_mean < v_rms, got %+v", mode, param, s)
			}
		}
	}
}

func TestCharacteristicSpeeds_Pure(t *testing.T) {
	a, _ := CharacteristicSpeeds(dynamo.Mass, 2.5)
	b, _ := CharacteristicSpeeds(dynamo.Mass, 2.5)
	if a != b {
		t.Errorf("repeated calls differ: %+v vs %+v", a, b)
	}
}

func TestCharacteristicSpeeds_Invalid(t *testing.T) {
	for _, param := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := CharacteristicSpeeds(dynamo.Temperature, param); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("param %v: expected ErrParameterBounds, got %v", param, err)
		}
	}
}

func TestMaxwellPDF_Normalized(t *testing.T) {
	for _, scale := range []float64{0.3, 1, 2.5} {
		d := Maxwell{Scale: scale}
		total := quad.Fixed(d.PDF, 0, 20*scale, 200, nil, 0)
		if math.Abs(total-1) > 1e-6 {
			t.Errorf("scale %v: PDF integrates to %v", scale, total)
		}
		mean := quad.Fixed(func(v float64) float64 { return v * d.PDF(v) }, 0, 20*scale, 200, nil, 0)
		if math.Abs(mean-d.Mean()) > 1e-6 {
			t.Errorf("scale %v: numeric mean %v, closed form %v", scale, mean, d.Mean())
		}
	}
}

func TestMaxwellCDF(t *testing.T) {
	d := Maxwell{Scale: 1.5}
	if d.CDF(0) != 0 || d.CDF(-1) != 0 {
		t.Error("CDF must be zero for v <= 0")
	}
	if got := d.CDF(100); math.Abs(got-1) > 1e-12 {
		t.Errorf("CDF(100) = %v, want 1", got)
	}
	for _, v := range []float64{0.5, 1, 2, 4} {
		want := quad.Fixed(d.PDF, 0, v, 100, nil, 0)
		if math.Abs(d.CDF(v)-want) > 1e-8 {
			t.Errorf("CDF(%v) = %v, integral %v", v, d.CDF(v), want)
		}
	}
}

func TestMaxwellPDF_PeakAtMostProbable(t *testing.T) {
	d := Maxwell{Scale: 2}
	vp := d.MostProbable()
	if d.PDF(vp) <= d.PDF(vp*0.99) || d.PDF(vp) <= d.PDF(vp*1.01) {
		t.Errorf("PDF not maximal at v_p=%v", vp)
	}
	if d.PDF(-1) != 0 {
		t.Error("PDF must be zero for negative speeds")
	}
}

func TestSampler_Moments(t *testing.T) {
	s, err := NewSampler(rand.NewSource(7))
	if err != nil {
		t.Fatal(err)
	}

	const n = 100000
	scale := 1.7
	vel, err := s.Velocities(n, scale)
	if err != nil {
		t.Fatal(err)
	}

	d := Maxwell{Scale: scale}
	var sum, sum2, cx, cy float64
	for _, v := range vel {
		sp := math.Hypot(v.X, v.Y)
		sum += sp
		sum2 += sp * sp
		cx += v.X / sp
		cy += v.Y / sp
	}
	mean := sum / n
	rms := math.Sqrt(sum2 / n)

	if math.Abs(mean-d.Mean())/d.Mean() > 0.01 {
		t.Errorf("sample mean %v, theory %v", mean, d.Mean())
	}
	if math.Abs(rms-d.RMS())/d.RMS() > 0.01 {
		t.Errorf("sample rms %v, theory %v", rms, d.RMS())
	}
	if math.Abs(cx/n) > 0.02 || math.Abs(cy/n) > 0.02 {
		t.Errorf("directions not isotropic: <cos>=%v <sin>=%v", cx/n, cy/n)
	}
}

func TestSampler_Deterministic(t *testing.T) {
	a, _ := NewSampler(rand.NewSource(123))
	b, _ := NewSampler(rand.NewSource(123))
	va, _ := a.Velocities(64, 1)
	vb, _ := b.Velocities(64, 1)
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("draw %d differs: %v vs %v", i, va[i], vb[i])
		}
	}
}

func TestSampler_Preconditions(t *testing.T) {
	if _, err := NewSampler(nil); !errors.Is(err, dynamo.ErrNilSource) {
		t.Errorf("expected ErrNilSource, got %v", err)
	}

	s, _ := NewSampler(rand.NewSource(1))
	for _, scale := range []float64{0, -2, math.NaN()} {
		if _, err := s.Velocities(10, scale); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("scale %v: expected ErrParameterBounds, got %v", scale, err)
		}
	}
	if _, err := s.Velocities(0, 1); !errors.Is(err, dynamo.ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
}
