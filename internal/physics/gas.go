package physics

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/mbsim/internal/dynamo"
)

// Chunk size below which Advance stays on the calling goroutine.
const parallelChunk = 4096

type Phase int

const (
	Uninitialized Phase = iota
	Active
)

func (p Phase) String() string {
	if p == Active {
		return "active"
	}
	return "uninitialized"
}

// Config selects an ensemble. DomainSize 0 means dynamo.DefaultDomainSize.
type Config struct {
	Count      int
	Mode       dynamo.Mode
	Param      float64
	DomainSize float64
}

// Gas is the ensemble state: positions, velocities and the fixed
// configuration they were built from.
type Gas struct {
	count int
	mode  dynamo.Mode
	param float64
	scale float64
	size  float64
	dt    float64

	pos []r2.Vec
	vel []r2.Vec

	sampler *Sampler
	phase   Phase

	mu          sync.Mutex
	reflections int64
	impulse     float64
	steps       int
}

// NewGas validates cfg and places count particles uniformly in the box.
// Velocities stay zero until Initialize.
func NewGas(cfg Config, src rand.Source) (*Gas, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("%w: %d", dynamo.ErrInvalidCount, cfg.Count)
	}
	scale, err := dynamo.Scale(cfg.Mode, cfg.Param)
	if err != nil {
		return nil, err
	}
	size := cfg.DomainSize
	if size == 0 {
		size = dynamo.DefaultDomainSize
	}
	if err := dynamo.CheckPositive("domain_size", size); err != nil {
		return nil, err
	}
	sampler, err := NewSampler(src)
	if err != nil {
		return nil, err
	}

	g := &Gas{
		count:   cfg.Count,
		mode:    cfg.Mode,
		param:   cfg.Param,
		scale:   scale,
		size:    size,
		dt:      dynamo.DefaultDt,
		pos:     make([]r2.Vec, cfg.Count),
		vel:     make([]r2.Vec, cfg.Count),
		sampler: sampler,
		phase:   Uninitialized,
	}
	if err := sampler.Place(g.pos, size); err != nil {
		return nil, err
	}
	return g, nil
}

// Initialize samples velocities once. Calling it on an Active gas is a no-op.
func (g *Gas) Initialize() error {
	if g.phase == Active {
		return nil
	}
	return g.Reinitialize()
}

// Reinitialize draws a fresh set of velocities from the same distribution.
func (g *Gas) Reinitialize() error {
	if err := g.sampler.Fill(g.vel, g.scale); err != nil {
		return err
	}
	g.phase = Active
	return nil
}

// Advance moves every particle by velocity·dt, then flips each velocity
// component whose coordinate left [0, size].
func (g *Gas) Advance() {
	dynamo.ParallelFor(g.count, parallelChunk, g.advanceRange)
	g.steps++
}

func (g *Gas) advanceRange(start, end int) {
	var hits int64
	var impulse float64
	for i := start; i < end; i++ {
		p := r2.Add(g.pos[i], r2.Scale(g.dt, g.vel[i]))
		g.pos[i] = p

		if p.X < 0 || p.X > g.size {
			impulse += 2 * math.Abs(g.vel[i].X)
			g.vel[i].X = -g.vel[i].X
			hits++
		}
		if p.Y < 0 || p.Y > g.size {
			impulse += 2 * math.Abs(g.vel[i].Y)
			g.vel[i].Y = -g.vel[i].Y
			hits++
		}
	}
	if hits == 0 {
		return
	}
	g.mu.Lock()
	g.reflections += hits
	g.impulse += impulse * g.particleMass()
	g.mu.Unlock()
}

// Speeds returns |v| per particle in a newly allocated slice.
func (g *Gas) Speeds() []float64 {
	return g.SpeedsInto(nil)
}

// SpeedsInto writes |v| per particle into dst, growing it when too small.
func (g *Gas) SpeedsInto(dst []float64) []float64 {
	if cap(dst) < g.count {
		dst = make([]float64, g.count)
	}
	dst = dst[:g.count]
	for i, v := range g.vel {
		dst[i] = r2.Norm(v)
	}
	return dst
}

func (g *Gas) Positions() []r2.Vec {
	out := make([]r2.Vec, len(g.pos))
	copy(out, g.pos)
	return out
}

func (g *Gas) Velocities() []r2.Vec {
	out := make([]r2.Vec, len(g.vel))
	copy(out, g.vel)
	return out
}

// KineticEnergy is ½·m·Σ|v|², with m = 1 in temperature mode.
func (g *Gas) KineticEnergy() float64 {
	sum := 0.0
	for _, v := range g.vel {
		sum += r2.Norm2(v)
	}
	return 0.5 * g.particleMass() * sum
}

// Finite reports whether every coordinate and velocity component is finite.
func (g *Gas) Finite() bool {
	for i := range g.pos {
		if !finite(g.pos[i]) || !finite(g.vel[i]) {
			return false
		}
	}
	return true
}

func (g *Gas) CharacteristicSpeeds() Speeds { return g.Theory().Speeds() }
func (g *Gas) Theory() Maxwell              { return Maxwell{Scale: g.scale} }

func (g *Gas) Count() int          { return g.count }
func (g *Gas) Mode() dynamo.Mode   { return g.mode }
func (g *Gas) Param() float64      { return g.param }
func (g *Gas) Scale() float64      { return g.scale }
func (g *Gas) DomainSize() float64 { return g.size }
func (g *Gas) Dt() float64         { return g.dt }
func (g *Gas) Phase() Phase        { return g.phase }
func (g *Gas) Steps() int          { return g.steps }
func (g *Gas) Elapsed() float64    { return float64(g.steps) * g.dt }

// Reflections is the number of velocity components flipped so far.
func (g *Gas) Reflections() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reflections
}

// Impulse is the momentum delivered to the walls so far, Σ 2·m·|v⊥|.
func (g *Gas) Impulse() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.impulse
}

func (g *Gas) particleMass() float64 {
	if g.mode == dynamo.Mass {
		return g.param
	}
	return 1
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
