// Package analysis compares simulated speeds with the Maxwell distribution.
//
// The package includes tools for judging how well an ensemble follows theory:
//
//   - [NewHistogram]: density-normalized speed histogram
//   - [TheoryCurve]: sampled probability density over the plot range
//   - [PlotRange]: upper speed limit used by every speed plot
//   - [Summarize]: sample moments, relative errors and Kolmogorov–Smirnov distance
//   - [ScatterToASCII]: shaded text rendering of particle positions
//
// # Goodness of Fit
//
// The KS distance is the largest gap between the empirical CDF and the
// theoretical one. For n independent draws it is of order 1/sqrt(n):
//
//	s, _ := analysis.Summarize(g.Speeds(), g.Theory())
//	if s.KS > 1.36/math.Sqrt(float64(s.N)) {
//	    // rejected at the 5% level
//	}
package analysis
