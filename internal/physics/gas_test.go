package physics

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/mbsim/internal/dynamo"
)

func newActiveGas(cfg Config, seed uint64) *Gas {
	g, err := NewGas(cfg, rand.NewSource(seed))
	Expect(err).NotTo(HaveOccurred())
	Expect(g.Initialize()).To(Succeed())
	return g
}

var _ = Describe("Gas", func() {
	Describe("construction", func() {
		It("allocates count positions and velocities inside the box", func() {
			for _, n := range []int{1, 17, 1000} {
				g, err := NewGas(Config{Count: n, Mode: dynamo.Temperature, Param: 1}, rand.NewSource(1))
				Expect(err).NotTo(HaveOccurred())
				Expect(g.Positions()).To(HaveLen(n))
				Expect(g.Velocities()).To(HaveLen(n))
				for _, p := range g.Positions() {
					Expect(p.X).To(BeNumerically(">=", 0))
					Expect(p.X).To(BeNumerically("<=", dynamo.DefaultDomainSize))
					Expect(p.Y).To(BeNumerically(">=", 0))
					Expect(p.Y).To(BeNumerically("<=", dynamo.DefaultDomainSize))
				}
			}
		})

		It("starts uninitialized with zero velocities", func() {
			g, err := NewGas(Config{Count: 10, Mode: dynamo.Mass, Param: 2}, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Phase()).To(Equal(Uninitialized))
			for _, s := range g.Speeds() {
				Expect(s).To(BeZero())
			}
		})

		It("uses the default domain size and time increment", func() {
			g, err := NewGas(Config{Count: 1, Mode: dynamo.Temperature, Param: 1}, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(g.DomainSize()).To(Equal(15.0))
			Expect(g.Dt()).To(Equal(0.03))
		})

		DescribeTable("maps the physical parameter to the scale",
			func(mode dynamo.Mode, param, scale float64) {
				g, err := NewGas(Config{Count: 1, Mode: mode, Param: param}, rand.NewSource(1))
				Expect(err).NotTo(HaveOccurred())
				Expect(g.Scale()).To(BeNumerically("~", scale, 1e-12))
			},
			Entry("temperature", dynamo.Temperature, 2.5, 2.5),
			Entry("unit mass", dynamo.Mass, 1.0, 1.0),
			Entry("heavy mass", dynamo.Mass, 4.0, 0.5),
			Entry("light mass", dynamo.Mass, 0.01, 10.0),
		)

		DescribeTable("rejects invalid configurations",
			func(cfg Config, target error) {
				_, err := NewGas(cfg, rand.NewSource(1))
				Expect(err).To(MatchError(target))
			},
			Entry("zero count", Config{Count: 0, Mode: dynamo.Temperature, Param: 1}, dynamo.ErrInvalidCount),
			Entry("negative count", Config{Count: -5, Mode: dynamo.Temperature, Param: 1}, dynamo.ErrInvalidCount),
			Entry("zero temperature", Config{Count: 5, Mode: dynamo.Temperature, Param: 0}, dynamo.ErrParameterBounds),
			Entry("negative mass", Config{Count: 5, Mode: dynamo.Mass, Param: -1}, dynamo.ErrParameterBounds),
			Entry("NaN param", Config{Count: 5, Mode: dynamo.Mass, Param: math.NaN()}, dynamo.ErrParameterBounds),
			Entry("negative domain", Config{Count: 5, Mode: dynamo.Temperature, Param: 1, DomainSize: -3}, dynamo.ErrParameterBounds),
			Entry("unknown mode", Config{Count: 5, Mode: dynamo.Mode(9), Param: 1}, dynamo.ErrUnknownMode),
		)

		It("requires a random source", func() {
			_, err := NewGas(Config{Count: 5, Mode: dynamo.Temperature, Param: 1}, nil)
			Expect(err).To(MatchError(dynamo.ErrNilSource))
		})
	})

	Describe("initialization", func() {
		It("becomes active and stays active", func() {
			g := newActiveGas(Config{Count: 100, Mode: dynamo.Temperature, Param: 1}, 3)
			Expect(g.Phase()).To(Equal(Active))
			for i := 0; i < 10; i++ {
				g.Advance()
			}
			Expect(g.Phase()).To(Equal(Active))
		})

		It("is deterministic for a fixed seed", func() {
			cfg := Config{Count: 200, Mode: dynamo.Mass, Param: 2}
			a := newActiveGas(cfg, 99)
			b := newActiveGas(cfg, 99)
			Expect(a.Positions()).To(Equal(b.Positions()))
			Expect(a.Velocities()).To(Equal(b.Velocities()))
		})

		It("does not resample on a second Initialize but does on Reinitialize", func() {
			g := newActiveGas(Config{Count: 50, Mode: dynamo.Temperature, Param: 1}, 5)
			before := g.Velocities()
			Expect(g.Initialize()).To(Succeed())
			Expect(g.Velocities()).To(Equal(before))
			Expect(g.Reinitialize()).To(Succeed())
			Expect(g.Velocities()).NotTo(Equal(before))
		})
	})

	Describe("Advance", func() {
		var g *Gas

		BeforeEach(func() {
			var err error
			g, err = NewGas(Config{Count: 2, Mode: dynamo.Temperature, Param: 1}, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())
			g.phase = Active
		})

		It("translates by velocity times dt", func() {
			g.pos[0] = r2.Vec{X: 5, Y: 5}
			g.vel[0] = r2.Vec{X: 1, Y: -2}
			g.Advance()
			Expect(g.pos[0].X).To(BeNumerically("~", 5.03, 1e-12))
			Expect(g.pos[0].Y).To(BeNumerically("~", 4.94, 1e-12))
			Expect(g.vel[0]).To(Equal(r2.Vec{X: 1, Y: -2}))
		})

		It("reflects the crossing axis without clamping the position", func() {
			g.pos[0] = r2.Vec{X: 15 - 0.01, Y: 7}
			g.vel[0] = r2.Vec{X: 10, Y: 3}
			g.Advance()
			Expect(g.pos[0].X).To(BeNumerically("~", 15.29, 1e-9))
			Expect(g.vel[0].X).To(Equal(-10.0))
			Expect(g.vel[0].Y).To(Equal(3.0))
		})

		It("reflects at the lower wall on each axis independently", func() {
			g.pos[0] = r2.Vec{X: 0.01, Y: 0.02}
			g.vel[0] = r2.Vec{X: -1, Y: -2}
			g.Advance()
			Expect(g.pos[0].X).To(BeNumerically("<", 0))
			Expect(g.pos[0].Y).To(BeNumerically("<", 0))
			Expect(g.vel[0]).To(Equal(r2.Vec{X: 1, Y: 2}))
			Expect(g.Reflections()).To(Equal(int64(2)))
			Expect(g.Impulse()).To(BeNumerically("~", 6, 1e-12))
		})

		It("leaves interior particles untouched", func() {
			g.pos[1] = r2.Vec{X: 7.5, Y: 0.5}
			g.vel[1] = r2.Vec{X: 3, Y: -3}
			g.Advance()
			Expect(g.vel[1]).To(Equal(r2.Vec{X: 3, Y: -3}))
		})

		It("returns an overshooting particle on the next step", func() {
			g.pos[0] = r2.Vec{X: 14.99, Y: 7}
			g.vel[0] = r2.Vec{X: 10, Y: 0}
			g.Advance()
			g.Advance()
			Expect(g.pos[0].X).To(BeNumerically("~", 14.99, 1e-9))
			Expect(g.vel[0].X).To(Equal(-10.0))
		})

		It("keeps speeds unchanged through reflections", func() {
			g := newActiveGas(Config{Count: 500, Mode: dynamo.Temperature, Param: 3}, 11)
			before := g.Speeds()
			for i := 0; i < 200; i++ {
				g.Advance()
			}
			after := g.Speeds()
			Expect(g.Reflections()).To(BeNumerically(">", 0))
			for i := range before {
				Expect(after[i]).To(BeNumerically("~", before[i], 1e-12))
			}
		})

		It("counts steps and elapsed time", func() {
			for i := 0; i < 4; i++ {
				g.Advance()
			}
			Expect(g.Steps()).To(Equal(4))
			Expect(g.Elapsed()).To(BeNumerically("~", 0.12, 1e-12))
		})
	})

	Describe("statistics", func() {
		It("computes speeds as fresh Euclidean norms", func() {
			g, err := NewGas(Config{Count: 2, Mode: dynamo.Temperature, Param: 1}, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())
			g.vel[0] = r2.Vec{X: 3, Y: -4}
			g.vel[1] = r2.Vec{X: -1, Y: 0}

			first := g.Speeds()
			Expect(first).To(Equal([]float64{5, 1}))

			first[0] = 42
			second := g.Speeds()
			Expect(second[0]).To(Equal(5.0))
		})

		It("reflects the current velocities after an advance", func() {
			g, err := NewGas(Config{Count: 1, Mode: dynamo.Temperature, Param: 1}, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())
			g.pos[0] = r2.Vec{X: 14.99, Y: 5}
			g.vel[0] = r2.Vec{X: 10, Y: 0}
			before := g.Speeds()
			g.Advance()
			after := g.Speeds()
			Expect(g.vel[0].X).To(Equal(-10.0))
			Expect(after).To(Equal(before))
			Expect(&after[0]).NotTo(BeIdenticalTo(&before[0]))
		})

		It("reuses a large enough buffer in SpeedsInto", func() {
			g := newActiveGas(Config{Count: 8, Mode: dynamo.Temperature, Param: 1}, 2)
			buf := make([]float64, 16)
			out := g.SpeedsInto(buf)
			Expect(out).To(HaveLen(8))
			Expect(&out[0]).To(BeIdenticalTo(&buf[0]))
		})

		It("computes kinetic energy with the particle mass", func() {
			g, err := NewGas(Config{Count: 2, Mode: dynamo.Mass, Param: 2}, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())
			g.vel[0] = r2.Vec{X: 3, Y: 4}
			g.vel[1] = r2.Vec{X: 0, Y: 1}
			Expect(g.KineticEnergy()).To(BeNumerically("~", 26, 1e-12))
		})

		It("detects non-finite state", func() {
			g := newActiveGas(Config{Count: 3, Mode: dynamo.Temperature, Param: 1}, 2)
			Expect(g.Finite()).To(BeTrue())
			g.vel[2].Y = math.Inf(1)
			Expect(g.Finite()).To(BeFalse())
		})
	})

	Describe("end to end", func() {
		It("stays finite for 1000 particles at T=2 over 100 frames", func() {
			g := newActiveGas(Config{Count: 1000, Mode: dynamo.Temperature, Param: 2}, 2024)
			Expect(g.Positions()).To(HaveLen(1000))

			cs := g.CharacteristicSpeeds()
			Expect(cs.MostProbable).To(BeNumerically("~", 2.83, 0.01))
			Expect(cs.Mean).To(BeNumerically("~", 3.19, 0.01))
			Expect(cs.RMS).To(BeNumerically("~", 3.46, 0.01))

			for i := 0; i < 100; i++ {
				g.Advance()
			}
			Expect(g.Finite()).To(BeTrue())
			for _, s := range g.Speeds() {
				Expect(math.IsInf(s, 0) || math.IsNaN(s)).To(BeFalse())
				Expect(s).To(BeNumerically(">=", 0))
			}
		})

		It("matches the serial pass when the ensemble is split across goroutines", func() {
			cfg := Config{Count: 3 * parallelChunk, Mode: dynamo.Temperature, Param: 4}
			a := newActiveGas(cfg, 8)
			b := newActiveGas(cfg, 8)
			for i := 0; i < 50; i++ {
				a.Advance()
				b.advanceRange(0, b.count)
				b.steps++
			}
			Expect(a.Positions()).To(Equal(b.Positions()))
			Expect(a.Velocities()).To(Equal(b.Velocities()))
			Expect(a.Reflections()).To(Equal(b.Reflections()))
		})
	})
})
