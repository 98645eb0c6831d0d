package lensing

import "errors"

// Domain errors for render parameter validation.
var (
	// ErrNonPositiveScale indicates a scale that is zero, negative, or NaN.
	ErrNonPositiveScale = errors.New("lensing: scale must be positive")

	// ErrUnknownMethod indicates a method outside {weak, geodesic}.
	ErrUnknownMethod = errors.New("lensing: unknown method")
)
