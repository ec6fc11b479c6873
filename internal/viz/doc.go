// Package viz provides the terminal view of a live gas ensemble.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: particles in the box, speed histogram against the Maxwell density
//     and the characteristic speeds
//   - [NewInteractiveApp]: preset menu and ensemble setup in front of the live view
//   - [Canvas]: Braille-based dot canvas used for the particle scatter
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Resample (new ensemble, next seed)
//	M     - Toggle temperature/mass mode
//	↑/↓   - Step T or m within the slider range
//	+/-   - Step the particle count
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// # Recording
//
// G records the particle canvas every frame and writes a looping GIF when
// recording stops or the program quits.
package viz
