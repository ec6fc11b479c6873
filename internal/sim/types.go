package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/mbsim/internal/physics"
)

// Frame is what metrics and observers see after one advance.
// Speeds is only valid during the callback; copy it to retain it.
type Frame struct {
	Index       int
	Time        float64
	Speeds      []float64
	Reflections int64
	Impulse     float64
}

type Metric interface {
	Name() string
	Observe(g *physics.Gas, f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(g *physics.Gas, f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(g *physics.Gas, f Frame)

func (fn ObserverFunc) OnFrame(g *physics.Gas, f Frame) { fn(g, f) }

type Config struct {
	Frames        int
	ValidateState bool
	// RecordEvery keeps the speed set of every n-th frame in Result.History.
	// Zero disables recording.
	RecordEvery int
}

type Result struct {
	Frames      int
	Elapsed     float64
	Speeds      []float64
	Positions   []r2.Vec
	Theory      physics.Speeds
	Metrics     map[string]float64
	Reflections int64
	Impulse     float64
	History     []Snapshot
	Errors      []error
}

// Snapshot is a recorded speed set.
type Snapshot struct {
	Frame  int
	Time   float64
	Speeds []float64
}

// FinalFrame returns the index of the last completed frame, or -1.
func (r *Result) FinalFrame() int { return r.Frames - 1 }
