package kf

import (
	"fmt"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/estimate"
	"github.com/milosgajdos/go-slds/kalman/skf"
	"gonum.org/v1/gonum/mat"
)

// KF is a stateful Kalman Filter which tracks a single estimate across regime switches.
// Every step is delegated to the underlying SKF. A failed step leaves the tracked estimate intact.
// KF is not safe for concurrent use.
type KF struct {
	// f is the switching filter doing the math
	f *skf.SKF
	// x is the tracked state estimate
	x *mat.VecDense
	// p is the tracked covariance matrix
	p *mat.Dense
	// inn is the innovation of the last update
	inn *skf.Innovation
	// steps counts successful updates
	steps int
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - f:    switching Kalman filter
//   - init: initial condition of the filter
//
// It returns error if either of the following conditions is met:
//   - f or init is nil
//   - initial condition dimensions do not match the filter state dimension
func New(f *skf.SKF, init slds.InitCond) (*KF, error) {
	if f == nil || init == nil {
		return nil, fmt.Errorf("%w: nil filter or initial condition", slds.ErrConfiguration)
	}

	n := f.StateDim()
	x := init.State()
	cov := init.Cov()

	if x.Len() != n || cov.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: invalid initial condition dimensions: [%d, %d x %d], expected %d",
			slds.ErrDimension, x.Len(), cov.SymmetricDim(), cov.SymmetricDim(), n)
	}

	return &KF{
		f: f,
		x: mat.VecDenseCopyOf(x),
		p: mat.DenseCopyOf(cov),
	}, nil
}

// Predict propagates the tracked estimate to the next step using dynamics of regime r.
// It is used when no measurement is available for the step.
func (k *KF) Predict(r slds.RegimeID) (slds.Estimate, error) {
	est, err := k.f.Predict(k.x, k.p, r)
	if err != nil {
		return nil, fmt.Errorf("state propagation failed: %w", err)
	}

	k.set(est)

	return est, nil
}

// Update corrects the tracked estimate using measurement z taken in regime r and returns corrected estimate.
func (k *KF) Update(r slds.RegimeID, z mat.Vector) (slds.Estimate, error) {
	est, in, err := k.f.Correct(k.x, k.p, r, z)
	if err != nil {
		return nil, fmt.Errorf("measurement update failed: %w", err)
	}

	k.set(est)
	k.inn = in
	k.steps++

	return est, nil
}

// Step runs one predict and update cycle for measurement z taken in regime r.
// The tracked estimate is modified only if both phases succeed.
func (k *KF) Step(r slds.RegimeID, z mat.Vector) (slds.Estimate, error) {
	pred, err := k.f.Predict(k.x, k.p, r)
	if err != nil {
		return nil, fmt.Errorf("state propagation failed: %w", err)
	}

	est, in, err := k.f.Correct(pred.Val(), pred.Cov(), r, z)
	if err != nil {
		return nil, fmt.Errorf("measurement update failed: %w", err)
	}

	k.set(est)
	k.inn = in
	k.steps++

	return est, nil
}

func (k *KF) set(est slds.Estimate) {
	k.x = mat.VecDenseCopyOf(est.Val())
	k.p = mat.DenseCopyOf(est.Cov())
}

// Estimate returns the tracked estimate.
func (k *KF) Estimate() slds.Estimate {
	// dimensions are validated on every change so this can't fail
	est, err := estimate.NewBaseWithCov(k.x, k.p)
	if err != nil {
		panic(err)
	}

	return est
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Matrix {
	return mat.DenseCopyOf(k.p)
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Matrix) error {
	if cov == nil {
		return fmt.Errorf("%w: invalid covariance matrix: %v", slds.ErrDimension, cov)
	}

	n := k.x.Len()
	if rows, cols := cov.Dims(); rows != n || cols != n {
		return fmt.Errorf("%w: invalid covariance matrix dims: [%d x %d]", slds.ErrDimension, rows, cols)
	}

	k.p = mat.DenseCopyOf(cov)

	return nil
}

// Gain returns Kalman gain of the last update or nil if there was none.
func (k *KF) Gain() mat.Matrix {
	if k.inn == nil {
		return nil
	}

	return mat.DenseCopyOf(k.inn.Gain)
}

// Innovation returns innovation of the last update or nil if there was none.
func (k *KF) Innovation() *skf.Innovation {
	return k.inn
}

// Steps returns number of successful measurement updates.
func (k *KF) Steps() int {
	return k.steps
}
