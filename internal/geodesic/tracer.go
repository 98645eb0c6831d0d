// Package geodesic traces photons through the curved spacetime of a
// Schwarzschild black hole by integrating the full geodesic equations.
package geodesic

import (
	"errors"
	"math"

	"github.com/san-kum/mirage/internal/blackhole"
	"github.com/san-kum/mirage/internal/ode"
)

// ErrInsideHorizon indicates a launch position at or below the
// Schwarzschild radius.
var ErrInsideHorizon = errors.New("geodesic: start radius inside the horizon")

// Spherical is a position in Schwarzschild coordinates (meters, radians).
type Spherical struct {
	R     float64
	Theta float64
	Phi   float64
}

// Velocity holds the coordinate velocities dr/dλ, dθ/dλ, dφ/dλ with respect
// to the affine parameter.
type Velocity struct {
	Dr     float64
	Dtheta float64
	Dphi   float64
}

// TraceResult is a photon trajectory sampled along the affine parameter.
// Escaped is set when the ray crossed back out through the escape radius
// before the parameter budget ran out.
type TraceResult struct {
	Escaped bool
	Lambdas []float64
	States  []ode.State
	Steps   int
}

// Final returns the last state of the trajectory.
func (r *TraceResult) Final() ode.State {
	return r.States[len(r.States)-1]
}

// FinalR returns the radial coordinate at the end of the trajectory.
func (r *TraceResult) FinalR() float64 {
	return r.Final()[1]
}

// FinalPhi returns the azimuthal angle at the end of the trajectory.
func (r *TraceResult) FinalPhi() float64 {
	return r.Final()[3]
}

// Tracer integrates null geodesics for one black hole model.
type Tracer struct {
	model  *blackhole.Model
	solver *ode.RK45
	opts   ode.Options
}

func NewTracer(m *blackhole.Model) *Tracer {
	return &Tracer{
		model:  m,
		solver: ode.NewRK45(),
		opts: ode.Options{
			RelTol: 1e-8,
			AbsTol: 1e-6,
		},
	}
}

// Model returns the black hole this tracer integrates against.
func (t *Tracer) Model() *blackhole.Model {
	return t.model
}

// Trace launches a photon from pos with coordinate velocity vel and follows
// it until it either escapes back out through 0.999·r₀ or the affine
// parameter reaches lambdaMax. The time velocity dt/dλ is derived from the
// null condition g_μν dx^μ dx^ν = 0, so the returned trajectory is always a
// light ray regardless of the spatial velocity supplied.
//
// A photon that never re-emerges (captured, or lambdaMax too small) comes
// back with Escaped=false and the trajectory integrated so far; deciding
// what that means is the caller's job. Integrator failures are returned as
// typed ode errors.
func (t *Tracer) Trace(pos Spherical, vel Velocity, lambdaMax float64) (*TraceResult, error) {
	rs := t.model.SchwarzschildRadius
	if pos.R <= rs {
		return nil, ErrInsideHorizon
	}

	f := 1 - rs/pos.R
	sinTh := math.Sin(pos.Theta)
	angular := pos.R * pos.R * (vel.Dtheta*vel.Dtheta + sinTh*sinTh*vel.Dphi*vel.Dphi)
	tDot0 := math.Sqrt((vel.Dr*vel.Dr/f + angular) / f)

	y0 := ode.State{0, pos.R, pos.Theta, pos.Phi, tDot0, vel.Dr, vel.Dtheta, vel.Dphi}

	// Slightly below the launch radius so an inward launch does not trigger
	// the event at λ=0.
	threshold := 0.999 * pos.R
	escape := ode.Event{
		G:         func(lambda float64, s ode.State) float64 { return s[1] - threshold },
		Direction: 1,
		Terminal:  true,
	}

	sol, err := t.solver.Solve(t.model, y0, 0, lambdaMax, t.opts, escape)
	if err != nil {
		return nil, err
	}

	return &TraceResult{
		Escaped: sol.Event,
		Lambdas: sol.Times,
		States:  sol.States,
		Steps:   sol.Steps,
	}, nil
}
