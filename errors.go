package slds

import "errors"

var (
	// ErrConfiguration is returned for malformed or inconsistent regime
	// parameters, non-stochastic transition matrices and unknown regimes.
	ErrConfiguration = errors.New("configuration error")
	// ErrDimension is returned when a state, covariance or measurement
	// does not match the dimensions of the active regime.
	ErrDimension = errors.New("dimension error")
	// ErrNumerical is returned when the innovation covariance is singular
	// or too ill-conditioned to invert.
	ErrNumerical = errors.New("numerical error")
)
