// Package nbody integrates the motion of point masses under mutual Newtonian gravitation.
//
// The package is split into three layers:
//
//   - [Body] and [Vector3]: the body model
//   - [Acceleration], [UpdateVelocities], [UpdatePositions]: the force and integration engine
//   - [Simulator] and [Run]: the driver that ticks the engine and samples trajectories
//
// Integration is semi-implicit (symplectic) Euler: every tick advances all velocities
// from the current positions, then advances all positions from the new velocities.
//
// # Example
//
//	bodies := nbody.Bodies{
//	    {Name: "a", Mass: 5e10},
//	    {Name: "b", Mass: 5e10, Position: nbody.Vector3{Y: 1e5}},
//	}
//	res, err := nbody.Run(ctx, bodies, nbody.Config{Dt: 1, Steps: 100, ReportFrequency: 10})
//
// # Thread Safety
//
// A Simulator keeps scratch buffers between runs and is not safe for concurrent use.
// Run works on its own copy of the bodies, so the caller's slice may be shared freely.
package nbody
