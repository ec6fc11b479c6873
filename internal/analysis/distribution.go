package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
)

// TheorySamples is the number of points on a theoretical curve.
const TheorySamples = 300

// PlotRange is the upper speed shown in distribution plots: 5 in mass mode,
// 4·T clamped to [5, 20] in temperature mode.
func PlotRange(mode dynamo.Mode, param float64) float64 {
	if mode == dynamo.Mass {
		return 5
	}
	return math.Min(20, math.Max(5, 4*param))
}

// Histogram of speeds over [0, upper) with equal-width bins.
type Histogram struct {
	Edges   []float64
	Counts  []float64
	Density []float64
	// Outside counts speeds at or above the last edge.
	Outside int
}

// NewHistogram bins speeds. Density is normalized by the total number of
// speeds, so it integrates to the fraction that fell inside the range.
func NewHistogram(speeds []float64, bins int, upper float64) (*Histogram, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram bins must be positive, got %d", bins)
	}
	if err := dynamo.CheckPositive("upper", upper); err != nil {
		return nil, err
	}

	sorted := make([]float64, len(speeds))
	copy(sorted, speeds)
	sort.Float64s(sorted)
	if len(sorted) > 0 && sorted[0] < 0 {
		return nil, fmt.Errorf("negative speed %g", sorted[0])
	}
	inside := sorted[:sort.SearchFloat64s(sorted, upper)]

	h := &Histogram{
		Edges:   floats.Span(make([]float64, bins+1), 0, upper),
		Counts:  make([]float64, bins),
		Density: make([]float64, bins),
		Outside: len(sorted) - len(inside),
	}
	if len(inside) > 0 {
		stat.Histogram(h.Counts, h.Edges, inside, nil)
	}

	if len(sorted) > 0 {
		width := upper / float64(bins)
		floats.ScaleTo(h.Density, 1/(float64(len(sorted))*width), h.Counts)
	}
	return h, nil
}

func (h *Histogram) Bins() int { return len(h.Counts) }

// Centers returns the midpoint of every bin.
func (h *Histogram) Centers() []float64 {
	c := make([]float64, len(h.Counts))
	for i := range c {
		c[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return c
}

// Peak is the center of the fullest bin, a crude most-probable-speed estimate.
func (h *Histogram) Peak() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	i := floats.MaxIdx(h.Counts)
	return (h.Edges[i] + h.Edges[i+1]) / 2
}

// TheoryCurve samples the distribution's PDF at n evenly spaced speeds in [0, upper].
func TheoryCurve(d physics.Maxwell, upper float64, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = floats.Span(make([]float64, n), 0, upper)
	ys = make([]float64, n)
	for i, v := range xs {
		ys[i] = d.PDF(v)
	}
	return xs, ys
}

// TheoryAtCenters evaluates the PDF at each bin center of h.
func TheoryAtCenters(d physics.Maxwell, h *Histogram) []float64 {
	centers := h.Centers()
	out := make([]float64, len(centers))
	for i, v := range centers {
		out[i] = d.PDF(v)
	}
	return out
}
