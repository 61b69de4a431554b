package sim

import (
	"fmt"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/regime"
	"gonum.org/v1/gonum/mat"
)

// System is a switching linear plant: a discrete-time linear system
// whose state (A) and output (C) matrices are picked by the active regime.
//
//	x[n+1] = A[r]*x[n] + wd
//	y[n]   = C[r]*x[n] + wn
type System struct {
	regimes *regime.Set
}

// NewSystem creates new switching system from regimes and returns it.
func NewSystem(regimes *regime.Set) (*System, error) {
	if regimes == nil {
		return nil, fmt.Errorf("%w: nil regime set", slds.ErrConfiguration)
	}

	return &System{regimes: regimes}, nil
}

// Regimes returns the regime set driving the system.
func (s *System) Regimes() *regime.Set {
	return s.regimes
}

// Propagate returns the next internal state x of the system in regime r.
// wd is added to the new state as process noise.
func (s *System) Propagate(r slds.RegimeID, x, wd mat.Vector) (mat.Vector, error) {
	params, err := s.regimes.Params(r)
	if err != nil {
		return nil, err
	}

	nx, _ := params.Dims()
	if x == nil || x.Len() != nx {
		return nil, fmt.Errorf("%w: invalid state vector", slds.ErrDimension)
	}

	out := new(mat.VecDense)
	out.MulVec(params.StateMatrix(), x)

	if wd != nil {
		if wd.Len() != nx {
			return nil, fmt.Errorf("%w: invalid process noise vector", slds.ErrDimension)
		}
		out.AddVec(out, wd)
	}

	return out, nil
}

// Observe returns external/observable state given internal state x in regime r.
// wn is added to the output as a noise vector.
func (s *System) Observe(r slds.RegimeID, x, wn mat.Vector) (mat.Vector, error) {
	params, err := s.regimes.Params(r)
	if err != nil {
		return nil, err
	}

	nx, ny := params.Dims()
	if x == nil || x.Len() != nx {
		return nil, fmt.Errorf("%w: invalid state vector", slds.ErrDimension)
	}

	out := new(mat.VecDense)
	out.MulVec(params.OutputMatrix(), x)

	if wn != nil {
		if wn.Len() != ny {
			return nil, fmt.Errorf("%w: invalid measurement noise vector", slds.ErrDimension)
		}
		out.AddVec(out, wn)
	}

	return out, nil
}
