// Package physics implements the ideal-gas ensemble and its kinetics.
//
// A [Gas] holds per-particle positions and velocities in a square box.
// The engine is made of three pieces:
//
//   - [Sampler]: draws Maxwell-distributed speeds with uniform directions
//   - [Gas.Advance]: one fixed time increment with elastic wall reflection
//   - [Gas.Speeds] and [CharacteristicSpeeds]: live and theoretical statistics
//
// # Lifecycle
//
// A Gas starts [Uninitialized] with uniformly placed particles and zero
// velocities. [Gas.Initialize] samples velocities and moves it to [Active],
// where it stays. Changing count, mode or parameter means building a new Gas.
//
//	src := rand.NewSource(42)
//	g, err := physics.NewGas(physics.Config{Count: 1000, Mode: dynamo.Temperature, Param: 2}, src)
//	if err != nil {
//	    return err
//	}
//	if err := g.Initialize(); err != nil {
//	    return err
//	}
//	for frame := 0; frame < 100; frame++ {
//	    g.Advance()
//	}
//	speeds := g.Speeds()
//
// # Boundaries
//
// Reflection looks at the coordinate after translation and flips the matching
// velocity component. Positions are not pulled back into the box, so a
// particle may sit outside by at most |v|·dt for one frame.
//
// # Thread Safety
//
// A Gas is owned by one caller. Advance fans the per-particle pass out over
// goroutines internally and returns after all of them finish.
package physics
