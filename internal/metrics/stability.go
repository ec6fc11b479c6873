package metrics

import (
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/sim"
)

// Containment is the frame-averaged fraction of particles inside the box.
// Positions are never clamped, so a particle that just crossed a wall
// counts as outside until it moves back.
type Containment struct {
	name    string
	sum     float64
	samples int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(g *physics.Gas, f sim.Frame) {
	size := g.DomainSize()
	pos := g.Positions()
	if len(pos) == 0 {
		return
	}
	inside := 0
	for _, p := range pos {
		if p.X >= 0 && p.X <= size && p.Y >= 0 && p.Y <= size {
			inside++
		}
	}
	c.sum += float64(inside) / float64(len(pos))
	c.samples++
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return c.sum / float64(c.samples)
}

func (c *Containment) Reset() {
	c.sum = 0
	c.samples = 0
}

// ReflectionRate is wall hits per unit time.
type ReflectionRate struct {
	name    string
	hits    int64
	elapsed float64
}

func NewReflectionRate() *ReflectionRate {
	return &ReflectionRate{name: "reflection_rate"}
}

func (r *ReflectionRate) Name() string { return r.name }

func (r *ReflectionRate) Observe(g *physics.Gas, f sim.Frame) {
	r.hits = f.Reflections
	r.elapsed = f.Time
}

func (r *ReflectionRate) Value() float64 {
	if r.elapsed == 0 {
		return 0
	}
	return float64(r.hits) / r.elapsed
}

func (r *ReflectionRate) Reset() {
	r.hits = 0
	r.elapsed = 0
}
