package blackhole

import (
	"errors"
	"math"

	"github.com/san-kum/mirage/internal/ode"
)

// Physical constants (SI units).
const (
	G         = 6.674e-11 // gravitational constant (m³/kg·s²)
	C         = 299792458 // speed of light (m/s)
	SolarMass = 1.989e30  // kg
)

// ErrNonPositiveMass indicates a mass that is zero, negative, or NaN.
var ErrNonPositiveMass = errors.New("blackhole: mass must be positive")

// Model is a non-rotating (Schwarzschild) black hole. Fields are derived
// once at construction; build a new Model to change the mass.
type Model struct {
	Mass                float64 // kg
	SchwarzschildRadius float64 // m
}

// New builds a model from a mass given in solar masses.
func New(solarMasses float64) (*Model, error) {
	if math.IsNaN(solarMasses) || solarMasses <= 0 {
		return nil, ErrNonPositiveMass
	}
	kg := solarMasses * SolarMass
	return &Model{
		Mass:                kg,
		SchwarzschildRadius: 2 * G * kg / (C * C),
	}, nil
}

// WeakFieldDeflection returns the Einstein angle 4GM/(c²b) for a ray passing
// at impact parameter b (meters). A ray inside the Schwarzschild radius is
// captured and gets +Inf.
func (m *Model) WeakFieldDeflection(b float64) float64 {
	if b < m.SchwarzschildRadius {
		return math.Inf(1)
	}
	return 4 * G * m.Mass / (C * C * b)
}

// Captured reports whether a deflection angle marks a captured ray.
func Captured(alpha float64) bool {
	return math.IsInf(alpha, 0) || math.IsNaN(alpha)
}

func (m *Model) Dim() int { return 8 }

// Derive evaluates the photon equations of motion in Schwarzschild
// coordinates. State layout: [t, r, θ, φ, dt/dλ, dr/dλ, dθ/dλ, dφ/dλ].
// Inside 1.01·rs the zero vector is returned, freezing captured rays
// instead of diverging on the coordinate singularity.
func (m *Model) Derive(s ode.State, lambda float64) ode.State {
	r := s[1]
	theta := s[2]
	tDot := s[4]
	rDot := s[5]
	thetaDot := s[6]
	phiDot := s[7]

	rs := m.SchwarzschildRadius
	if r <= 1.01*rs {
		return make(ode.State, 8)
	}

	f := 1 - rs/r
	sinTh, cosTh := math.Sincos(theta)

	// Non-zero Christoffel symbols.
	gTtr := rs / (2 * r * (r - rs))
	gRtt := rs * f / (2 * r * r)
	gRrr := -rs / (2 * r * (r - rs))
	gRthth := -(r - rs)
	gRphph := -(r - rs) * sinTh * sinTh
	gThrth := 1 / r
	gThphph := -sinTh * cosTh
	gPhrph := 1 / r
	gPhthph := cosTh / sinTh

	return ode.State{
		tDot,
		rDot,
		thetaDot,
		phiDot,
		-2 * gTtr * tDot * rDot,
		-gRtt*tDot*tDot - gRrr*rDot*rDot - gRthth*thetaDot*thetaDot - gRphph*phiDot*phiDot,
		-2*gThrth*rDot*thetaDot - gThphph*phiDot*phiDot,
		-2*gPhrph*rDot*phiDot - 2*gPhthph*thetaDot*phiDot,
	}
}
