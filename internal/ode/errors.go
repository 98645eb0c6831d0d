package ode

import "errors"

// Domain errors for integration.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("ode: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the integration became numerically unstable.
	ErrUnstable = errors.New("ode: integration unstable (state diverged)")

	// ErrStepTooSmall indicates the adaptive step fell below the minimum.
	ErrStepTooSmall = errors.New("ode: adaptive step below minimum")

	// ErrMaxSteps indicates the step budget ran out before the interval end.
	ErrMaxSteps = errors.New("ode: maximum step count exceeded")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("ode: dimension mismatch between state and system")
)

// SolveError wraps an error with the integration context at the failure point.
type SolveError struct {
	Step    int
	T       float64
	State   State
	Wrapped error
}

func (e *SolveError) Error() string {
	return e.Wrapped.Error()
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
