// Package regime holds the per-regime linear-Gaussian dynamics of a switching system.
package regime

import (
	"fmt"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/matrix"
	"gonum.org/v1/gonum/mat"
)

const (
	// SymTol is the tolerance used to check noise covariance symmetry
	SymTol = 1e-9
	// PSDTol is the smallest eigenvalue a noise covariance may have
	PSDTol = -1e-9
)

// Params are linear-Gaussian dynamics of a single regime:
//
//	x[k+1] = A*x[k] + w,  w ~ N(0, Q)
//	z[k]   = C*x[k] + v,  v ~ N(0, R)
type Params struct {
	// a is state transition matrix
	a *mat.Dense
	// c is observation matrix
	c *mat.Dense
	// q is process noise covariance
	q *mat.SymDense
	// r is measurement noise covariance
	r *mat.SymDense
}

// NewParams creates new regime parameters and returns them.
// The matrices are copied. It returns error wrapping slds.ErrConfiguration if either of
// the following conditions is met:
//   - any matrix is nil or contains non-finite values
//   - A is not square, C does not have as many columns as A
//   - Q is not n x n or R is not m x m where n is A size and m is number of C rows
//   - Q or R is not symmetric positive semi-definite
func NewParams(A, C, Q, R mat.Matrix) (*Params, error) {
	if A == nil || C == nil || Q == nil || R == nil {
		return nil, fmt.Errorf("%w: regime matrices must not be nil", slds.ErrConfiguration)
	}

	for name, m := range map[string]mat.Matrix{"A": A, "C": C, "Q": Q, "R": R} {
		if !matrix.IsFinite(m) {
			return nil, fmt.Errorf("%w: %s contains non-finite values", slds.ErrConfiguration, name)
		}
	}

	n, cols := A.Dims()
	if n == 0 || n != cols {
		return nil, fmt.Errorf("%w: invalid state matrix dimensions: [%d x %d]", slds.ErrConfiguration, n, cols)
	}

	m, cols := C.Dims()
	if m == 0 || cols != n {
		return nil, fmt.Errorf("%w: invalid observation matrix dimensions: [%d x %d]", slds.ErrConfiguration, m, cols)
	}

	q, err := noiseCov("process", Q, n)
	if err != nil {
		return nil, err
	}

	r, err := noiseCov("measurement", R, m)
	if err != nil {
		return nil, err
	}

	return &Params{
		a: mat.DenseCopyOf(A),
		c: mat.DenseCopyOf(C),
		q: q,
		r: r,
	}, nil
}

func noiseCov(name string, cov mat.Matrix, size int) (*mat.SymDense, error) {
	rows, cols := cov.Dims()
	if rows != size || cols != size {
		return nil, fmt.Errorf("%w: invalid %s noise dimensions: [%d x %d], expected [%d x %d]",
			slds.ErrConfiguration, name, rows, cols, size, size)
	}

	if !matrix.IsSymmetric(cov, SymTol) {
		return nil, fmt.Errorf("%w: %s noise covariance is not symmetric", slds.ErrConfiguration, name)
	}

	sym := matrix.Symmetrize(cov)

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return nil, fmt.Errorf("%w: failed to factorize %s noise covariance", slds.ErrConfiguration, name)
	}
	// eigenvalues are returned in ascending order
	if vals := eig.Values(nil); vals[0] < PSDTol {
		return nil, fmt.Errorf("%w: %s noise covariance is not positive semi-definite: min eigenvalue %g",
			slds.ErrConfiguration, name, vals[0])
	}

	return sym, nil
}

// Dims returns state dimension n and measurement dimension m.
func (p *Params) Dims() (n, m int) {
	n, _ = p.a.Dims()
	m, _ = p.c.Dims()

	return n, m
}

// StateMatrix returns state transition matrix A.
// The returned matrix must not be modified.
func (p *Params) StateMatrix() mat.Matrix { return p.a }

// OutputMatrix returns observation matrix C.
// The returned matrix must not be modified.
func (p *Params) OutputMatrix() mat.Matrix { return p.c }

// StateNoiseCov returns process noise covariance Q.
// The returned matrix must not be modified.
func (p *Params) StateNoiseCov() mat.Symmetric { return p.q }

// OutputNoiseCov returns measurement noise covariance R.
// The returned matrix must not be modified.
func (p *Params) OutputNoiseCov() mat.Symmetric { return p.r }
