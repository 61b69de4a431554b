package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestRowSums(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1.2, 3.4, 4.5, 6.7, 8.9, 10.0}
	rowSums := []float64{4.6, 11.2, 18.9}
	delta := 0.001

	m := mat.NewDense(3, 2, data)
	assert.NotNil(m)

	// check rows
	resRows := RowSums(m)
	assert.NotNil(resRows)
	assert.InDeltaSlice(rowSums, resRows, delta)
	// should panic
	assert.Panics(func() { RowSums(nil) })
}

func TestIdentity(t *testing.T) {
	assert := assert.New(t)

	eye := Identity(3)
	r, c := eye.Dims()
	assert.Equal(3, r)
	assert.Equal(3, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i == j {
				assert.Equal(1.0, eye.At(i, j))
				continue
			}
			assert.Equal(0.0, eye.At(i, j))
		}
	}
}

func TestSymmetry(t *testing.T) {
	assert := assert.New(t)

	sym := mat.NewDense(2, 2, []float64{1.0, 0.5, 0.5, 2.0})
	assert.Equal(0.0, SymmetryError(sym))
	assert.True(IsSymmetric(sym, 0))

	asym := mat.NewDense(2, 2, []float64{1.0, 0.5, 0.7, 2.0})
	assert.InDelta(0.2, SymmetryError(asym), 1e-12)
	assert.False(IsSymmetric(asym, 1e-3))
	assert.True(IsSymmetric(asym, 0.3))

	s := Symmetrize(asym)
	assert.InDelta(0.6, s.At(0, 1), 1e-12)
	assert.InDelta(0.6, s.At(1, 0), 1e-12)
	assert.Equal(1.0, s.At(0, 0))
	assert.Equal(2.0, s.At(1, 1))

	rect := mat.NewDense(2, 3, nil)
	assert.True(math.IsInf(SymmetryError(rect), 1))
	assert.False(IsSymmetric(rect, 1))
	assert.Panics(func() { Symmetrize(rect) })
}

func TestIsFinite(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsFinite(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	assert.False(IsFinite(mat.NewDense(1, 2, []float64{1, math.NaN()})))
	assert.False(IsFinite(mat.NewDense(1, 2, []float64{math.Inf(-1), 1})))
}
