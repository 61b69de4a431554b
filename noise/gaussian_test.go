package noise

import (
	"errors"
	"testing"

	slds "github.com/milosgajdos/go-slds"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestNewGaussian(t *testing.T) {
	assert := assert.New(t)
	for _, test := range []struct {
		mean []float64
		cov  *mat.SymDense
	}{
		{
			mean: []float64{2, 3},
			cov:  mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
		},
		{
			mean: []float64{0, 0},
			cov:  mat.NewSymDense(2, []float64{1, 0, 0, 0}),
		},
	} {
		g, err := NewGaussian(test.mean, test.cov, rand.NewSource(1))
		assert.NotNil(g)
		assert.NoError(err)
	}

	g, err := NewGaussian([]float64{1}, mat.NewSymDense(2, nil), nil)
	assert.Nil(g)
	assert.True(errors.Is(err, slds.ErrDimension))

	g, err = NewGaussian([]float64{0, 0}, mat.NewSymDense(2, []float64{1, 2, 2, 1}), nil)
	assert.Nil(g)
	assert.True(errors.Is(err, slds.ErrConfiguration))
}

func TestMeanCov(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, nil)
	assert.NotNil(g)
	assert.NoError(err)

	gCov := g.Cov()
	assert.Equal(cov.SymmetricDim(), gCov.SymmetricDim())
	assert.True(mat.Equal(cov, gCov))

	// returned values are copies
	gMean := g.Mean()
	assert.EqualValues(mean, gMean)
	gMean[0] = 100
	assert.EqualValues(mean, g.Mean())
}

func TestSample(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, rand.NewSource(7))
	assert.NoError(err)

	sample := g.Sample()
	r, _ := sample.Dims()
	assert.Equal(r, len(mean))

	// sample mean converges to the noise mean
	n := 5000
	sum := mat.NewVecDense(2, nil)
	for i := 0; i < n; i++ {
		sum.AddVec(sum, g.Sample())
	}
	sum.ScaleVec(1/float64(n), sum)
	assert.InDelta(2.0, sum.AtVec(0), 0.1)
	assert.InDelta(3.0, sum.AtVec(1), 0.1)
}

func TestSampleSingular(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{1, -1}
	cov := mat.NewSymDense(2, []float64{4, 0, 0, 0})

	g, err := NewGaussian(mean, cov, rand.NewSource(11))
	assert.NoError(err)

	for i := 0; i < 10; i++ {
		s := g.Sample()
		assert.InDelta(-1.0, s.AtVec(1), 1e-12)
	}
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, nil)
	assert.NotNil(g)
	assert.NoError(err)

	sample1 := g.Sample()

	err = g.Reset()
	assert.NoError(err)

	sample2 := g.Sample()
	assert.NotEqual(sample1, sample2)
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	str := `Gaussian{
Mean=[2 3]
Cov=⎡  1  0.1⎤
    ⎣0.1    1⎦
}`
	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, nil)
	assert.NotNil(g)
	assert.NoError(err)
	assert.Equal(str, g.String())
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	n, err := New([]float64{0, 0}, mat.NewSymDense(2, nil), nil)
	assert.NoError(err)
	assert.IsType(&Zero{}, n)

	n, err = New([]float64{0, 0}, mat.NewSymDense(2, []float64{1, 0, 0, 1}), nil)
	assert.NoError(err)
	assert.IsType(&Gaussian{}, n)
}
