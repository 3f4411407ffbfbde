// Package physics implements the per-tick passes of the drop simulation.
//
// A tick runs the passes in a fixed order over one slice of bodies:
//
//   - [CountContacts]: touching neighbours, from end-of-previous-tick positions
//   - [Integrate]: gravity, damping, friction, position and spin
//   - [ResolveCollisions]: impulse, spin transfer and de-penetration per pair
//   - [Arena.Contain]: wall clamping and damped bounce
//
// Every pass is total. Coincident centres are skipped rather than divided by
// zero, and a degenerate arena centres bodies instead of panicking.
//
// All pair work is O(n²) with no spatial partitioning.
package physics
