// Package dynamo provides the core data types shared by the drop simulation.
//
// The package defines the entities and collaborator interfaces that the
// physics passes and the simulation controller exchange:
//
//   - [Body]: a single circular particle (position, velocity, spin, mass)
//   - [GravitySource]: polled once per tick for the gravity direction
//   - [Snapshot]: immutable per-tick view handed to renderers and observers
//   - [Observer], [Metric]: per-tick hooks
//   - [Ensemble]: independent headless runs executed in parallel
//
// # Example
//
//	s, _ := sim.New(cfg, sim.WithGravity(sensor.Fixed{V: dynamo.Down}))
//	s.Start()
//	s.Spawn(dynamo.Vec2{120, 200})
//	s.Tick()
//	snap := s.Snapshot()
//
// # Thread Safety
//
// Body slices are owned by a single simulation and are NOT thread-safe.
// Snapshots are copies and may be read from any goroutine.
package dynamo
