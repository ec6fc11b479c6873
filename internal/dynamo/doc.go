// Package dynamo provides the primitives shared by the gas simulation.
//
// The package defines the configuration vocabulary and the error taxonomy
// used by every other package:
//
//   - [Mode]: whether the physical parameter is a temperature or a mass
//   - [Scale]: maps a mode and parameter to the Maxwell scale parameter
//   - [ParallelFor]: chunked fan-out for per-particle passes
//   - [SimError], [ParamError]: errors carrying simulation context
//
// # Scale Parameter
//
// The width of the speed distribution is controlled by a single value a:
//
//	a = T           (Temperature mode)
//	a = sqrt(1/m)   (Mass mode)
//
// Both T and m must be positive and finite; anything else is reported as
// [ErrParameterBounds].
//
// # Thread Safety
//
// Everything here is stateless. [ParallelFor] blocks until every chunk has
// returned.
package dynamo
