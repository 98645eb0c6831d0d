// Package ode provides numerical integration primitives for first-order
// systems dY/dt = f(Y, t).
//
// The package defines the fundamental types used by the ray tracer:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems
//   - [RK45]: adaptive Dormand–Prince 5(4) solver with dense output
//   - [Event]: zero-crossing detector evaluated on the continuous solution
//
// # Events
//
// An [Event] watches a scalar function of the state for a sign change in a
// chosen direction. When a terminal event fires, integration stops and the
// final recorded sample is the state at the crossing, located by bisecting
// the solver's dense interpolant rather than the last discrete step.
//
// # Thread Safety
//
// RK45 instances keep no state between calls to Solve and may be shared;
// a single Solve call runs to completion on the calling goroutine.
package ode
