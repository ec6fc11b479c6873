package metrics

import (
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/sim"
)

// WallPressure is the time-averaged force per unit wall length: cumulative
// wall impulse divided by perimeter and elapsed time. For an ideal gas it
// approaches KE / area.
type WallPressure struct {
	name      string
	impulse   float64
	elapsed   float64
	perimeter float64
}

func NewWallPressure() *WallPressure {
	return &WallPressure{name: "wall_pressure"}
}

func (p *WallPressure) Name() string { return p.name }

func (p *WallPressure) Observe(g *physics.Gas, f sim.Frame) {
	p.impulse = f.Impulse
	p.elapsed = f.Time
	p.perimeter = 4 * g.DomainSize()
}

func (p *WallPressure) Value() float64 {
	if p.elapsed == 0 || p.perimeter == 0 {
		return 0
	}
	return p.impulse / (p.perimeter * p.elapsed)
}

func (p *WallPressure) Reset() {
	p.impulse = 0
	p.elapsed = 0
	p.perimeter = 0
}
