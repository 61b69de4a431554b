// Package slds estimates the hidden state of a switching linear dynamical system:
// a process whose linear-Gaussian dynamics change between a finite set of regimes.
// The active regime is supplied by the caller at every step.
package slds

import "gonum.org/v1/gonum/mat"

// RegimeID identifies a discrete regime of a switching system
type RegimeID int

// Filter is a regime-conditional dynamical system filter
type Filter interface {
	// Predict propagates estimate (x, p) through the dynamics of regime r
	Predict(x mat.Vector, p mat.Matrix, r RegimeID) (Estimate, error)
	// Update corrects predicted estimate (x, p) with measurement z observed in regime r
	Update(x mat.Vector, p mat.Matrix, r RegimeID, z mat.Vector) (Estimate, error)
	// Step runs Predict followed by Update
	Step(x mat.Vector, p mat.Matrix, r RegimeID, z mat.Vector) (Estimate, error)
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance.
	// It is not guaranteed to be exactly symmetric: round-off accumulates
	// in the covariance update unless symmetry repair is enabled.
	Cov() mat.Matrix
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}
