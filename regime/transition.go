package regime

import (
	"fmt"
	"math"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/matrix"
	"gonum.org/v1/gonum/mat"
)

// StochasticTol is the tolerance on transition matrix row sums
const StochasticTol = 1e-9

// Transition is a row-stochastic regime transition matrix:
// element (i, j) is the probability of switching from regime i to regime j.
//
// The regime-conditional filter does not consult it; it is kept for
// regime path simulation and for regime inference built on top of the filter.
type Transition struct {
	p *mat.Dense
}

// NewTransition creates new transition matrix from m and returns it.
// It returns error wrapping slds.ErrConfiguration if m is not square, if any of
// its elements lies outside [0, 1] or if any of its rows does not sum to 1.
func NewTransition(m mat.Matrix) (*Transition, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil transition matrix", slds.ErrConfiguration)
	}

	rows, cols := m.Dims()
	if rows == 0 || rows != cols {
		return nil, fmt.Errorf("%w: invalid transition matrix dimensions: [%d x %d]", slds.ErrConfiguration, rows, cols)
	}

	p := mat.DenseCopyOf(m)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := p.At(i, j)
			if math.IsNaN(v) || v < 0 || v > 1 {
				return nil, fmt.Errorf("%w: invalid transition probability at [%d, %d]: %v", slds.ErrConfiguration, i, j, v)
			}
		}
	}

	for i, sum := range matrix.RowSums(p) {
		if math.Abs(sum-1.0) > StochasticTol {
			return nil, fmt.Errorf("%w: transition matrix row %d sums to %v", slds.ErrConfiguration, i, sum)
		}
	}

	return &Transition{p: p}, nil
}

// Size returns the number of regimes the transition matrix covers.
func (t *Transition) Size() int {
	r, _ := t.p.Dims()
	return r
}

// Prob returns the probability of switching from regime index i to regime index j.
// It panics if either index is out of range.
func (t *Transition) Prob(i, j int) float64 {
	return t.p.At(i, j)
}

// Row returns a copy of transition probabilities out of regime index i.
// It panics if i is out of range.
func (t *Transition) Row(i int) []float64 {
	row := make([]float64, t.Size())
	copy(row, t.p.RawRowView(i))

	return row
}

// Matrix returns a copy of the transition matrix.
func (t *Transition) Matrix() *mat.Dense {
	return mat.DenseCopyOf(t.p)
}
