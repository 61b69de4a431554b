package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewPlot(t *testing.T) {
	assert := assert.New(t)

	truth := mat.NewDense(3, 2, nil)
	measure := mat.NewDense(3, 1, nil)
	filter := mat.NewDense(3, 2, nil)

	plt, err := NewPlot(truth, measure, filter)
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewPlot(nil, nil, nil)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = NewPlot(&mat.Dense{}, measure, filter)
	assert.Nil(plt)
	assert.Error(err)
}
