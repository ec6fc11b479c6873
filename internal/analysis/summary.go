package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mbsim/internal/physics"
)

var ErrNoSamples = errors.New("analysis: no speed samples")

// Summary compares sample statistics of a speed set with theory.
type Summary struct {
	N      int            `json:"n"`
	Mean   float64        `json:"mean"`
	RMS    float64        `json:"rms"`
	StdDev float64        `json:"std_dev"`
	Max    float64        `json:"max"`
	Theory physics.Speeds `json:"theory"`
	// Relative errors against the closed-form speeds.
	MeanError float64 `json:"mean_error"`
	RMSError  float64 `json:"rms_error"`
	KS        float64 `json:"ks"`
}

func Summarize(speeds []float64, d physics.Maxwell) (Summary, error) {
	if len(speeds) == 0 {
		return Summary{}, ErrNoSamples
	}

	n := float64(len(speeds))
	s := Summary{
		N:      len(speeds),
		Mean:   stat.Mean(speeds, nil),
		RMS:    math.Sqrt(floats.Dot(speeds, speeds) / n),
		Max:    floats.Max(speeds),
		Theory: d.Speeds(),
		KS:     KSDistance(speeds, d),
	}
	if len(speeds) > 1 {
		s.StdDev = stat.StdDev(speeds, nil)
	}
	s.MeanError = math.Abs(s.Mean-s.Theory.Mean) / s.Theory.Mean
	s.RMSError = math.Abs(s.RMS-s.Theory.RMS) / s.Theory.RMS
	return s, nil
}

// KSDistance is sup |F_n(v) - F(v)| between the empirical CDF of speeds
// and the distribution's CDF.
func KSDistance(speeds []float64, d physics.Maxwell) float64 {
	if len(speeds) == 0 {
		return 0
	}
	sorted := make([]float64, len(speeds))
	copy(sorted, speeds)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	dmax := 0.0
	for i, v := range sorted {
		f := d.CDF(v)
		lo := f - float64(i)/n
		hi := float64(i+1)/n - f
		dmax = math.Max(dmax, math.Max(lo, hi))
	}
	return dmax
}

// KSCritical is the asymptotic 5% critical value for n samples.
func KSCritical(n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	return 1.358 / math.Sqrt(float64(n))
}
