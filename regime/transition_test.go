package regime

import (
	"errors"
	"testing"

	slds "github.com/milosgajdos/go-slds"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewTransition(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(2, 2, []float64{0.95, 0.05, 0.10, 0.90})
	tr, err := NewTransition(m)
	assert.NotNil(tr)
	assert.NoError(err)
	assert.Equal(2, tr.Size())
	assert.Equal(0.05, tr.Prob(0, 1))
	assert.Equal([]float64{0.10, 0.90}, tr.Row(1))

	// returned row and matrix are copies
	row := tr.Row(0)
	row[0] = 0.0
	tr.Matrix().Set(0, 0, 0.0)
	assert.Equal(0.95, tr.Prob(0, 0))

	for _, test := range []struct {
		name string
		m    mat.Matrix
	}{
		{"nil", nil},
		{"non-square", mat.NewDense(2, 3, []float64{0.5, 0.5, 0, 0.5, 0.5, 0})},
		{"row sum", mat.NewDense(2, 2, []float64{0.9, 0.05, 0.1, 0.9})},
		{"negative", mat.NewDense(2, 2, []float64{1.1, -0.1, 0.1, 0.9})},
	} {
		tr, err := NewTransition(test.m)
		assert.Nil(tr, test.name)
		assert.True(errors.Is(err, slds.ErrConfiguration), test.name)
	}
}
