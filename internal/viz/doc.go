// Package viz draws the drop simulation in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one simulation with a stats panel
//   - [Canvas]: Braille-based pixel canvas with line and circle drawing
//   - a preset menu started by [RunInteractive]
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	Space  - Start/Stop simulation
//	Click  - Drop a body under the cursor
//	Arrows - Tilt the phone, gravity follows
//	R/r    - Rotate the phone
//	C      - Clear the arena
//	T      - Cycle color themes
//	G      - Toggle GIF recording
//	?      - Show help overlay
//
// # Recording
//
// The visualization supports recording simulation sessions as GIF animations
// using the G key. Recordings are saved to dropsim.gif in the current directory.
package viz
