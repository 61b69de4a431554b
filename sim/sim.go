package sim

import (
	"fmt"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/matrix"
	"github.com/milosgajdos/go-slds/regime"
	"gonum.org/v1/gonum/mat"
)

// InitCond implements slds.InitCond
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates new InitCond and returns it
func NewInitCond(state mat.Vector, cov mat.Symmetric) *InitCond {
	s := &mat.VecDense{}
	s.CloneFromVec(state)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &InitCond{
		state: s,
		cov:   c,
	}
}

// Validate checks the initial condition is usable for state dimension n.
// It returns error wrapping slds.ErrDimension if state or covariance size differs from n
// and error wrapping slds.ErrConfiguration if state or covariance contains non-finite values
// or if covariance is not positive semi-definite.
func (c *InitCond) Validate(n int) error {
	if c.state.Len() != n || c.cov.SymmetricDim() != n {
		return fmt.Errorf("%w: initial condition dimensions [%d, %d x %d], expected %d",
			slds.ErrDimension, c.state.Len(), c.cov.SymmetricDim(), c.cov.SymmetricDim(), n)
	}

	if !matrix.IsFinite(c.state) || !matrix.IsFinite(c.cov) {
		return fmt.Errorf("%w: initial condition contains non-finite values", slds.ErrConfiguration)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(c.cov, false); !ok {
		return fmt.Errorf("%w: failed to factorize initial covariance", slds.ErrConfiguration)
	}
	// eigenvalues are returned in ascending order
	if vals := eig.Values(nil); vals[0] < regime.PSDTol {
		return fmt.Errorf("%w: initial covariance is not positive semi-definite: min eigenvalue %g",
			slds.ErrConfiguration, vals[0])
	}

	return nil
}

// State returns initial state
func (c *InitCond) State() mat.Vector {
	state := mat.NewVecDense(c.state.Len(), nil)
	state.CloneFromVec(c.state)

	return state
}

// Cov returns initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.SymmetricDim(), nil)
	cov.CopySym(c.cov)

	return cov
}
