package estimate

import (
	"fmt"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// Base is base estimate
type Base struct {
	// val is estimated value
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.Dense
}

// NewBase returns base estimate given val with zero covariance.
// It returns error if val is nil or empty.
func NewBase(val mat.Vector) (*Base, error) {
	if val == nil || val.Len() == 0 {
		return nil, fmt.Errorf("%w: invalid estimate value", slds.ErrDimension)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewDense(v.Len(), v.Len(), nil)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given value and covariance.
// cov must be square with the same number of rows as val; it is copied as is,
// without enforcing symmetry.
func NewBaseWithCov(val mat.Vector, cov mat.Matrix) (*Base, error) {
	if val == nil || cov == nil {
		return nil, fmt.Errorf("%w: nil estimate value or covariance", slds.ErrDimension)
	}

	rv := val.Len()
	rc, cc := cov.Dims()
	if rv == 0 || rv != rc || rc != cc {
		return nil, fmt.Errorf("%w: invalid dimensions. Val: %d, Cov: %d x %d", slds.ErrDimension, rv, rc, cc)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	return &Base{
		val: v,
		cov: mat.DenseCopyOf(cov),
	}, nil
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.val)

	return v
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Matrix {
	return mat.DenseCopyOf(b.cov)
}

// String implements the Stringer interface.
func (b *Base) String() string {
	return fmt.Sprintf("Estimate{\nVal=%v\nCov=%v\n}", matrix.Format(b.val), matrix.Format(b.cov))
}
