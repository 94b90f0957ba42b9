// Package compute provides the kinematics kernels that advance particles
// toward the attractor.
//
// Three kernels share one update rule:
//
//   - scalar: one particle per iteration; the reference
//   - lanes: fixed-width blocks sized from the CPU's vector unit
//   - blas: gonum level-1 BLAS for the velocity and position updates
//
// Select one by name, or let the package pick:
//
//	k, err := compute.New(compute.Auto)
//	k.Advance(px, py, vx, vy, params)
//
// Each tick, per particle:
//
//	d   = max(|attractor - pos|, MinDistance)
//	vel = (vel + A * (attractor - pos) / d) * friction
//	pos = pos + vel
//
// followed by the wrap policy. Kernels touch only the slices they are given.
package compute
