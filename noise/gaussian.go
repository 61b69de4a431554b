package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	slds "github.com/milosgajdos/go-slds"
	srand "github.com/milosgajdos/go-slds/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution; nil if cov is singular
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
	// src is random source; nil means time seeded source
	src rand.Source
	// rnd draws singular noise samples
	rnd rand.Source
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// Samples are drawn from src; if src is nil a time seeded source is used.
// Positive semi-definite covariance is allowed: singular noise is sampled along the range of cov.
// It returns error if cov is not positive semi-definite or if mean length differs from cov size.
func NewGaussian(mean []float64, cov mat.Symmetric, src rand.Source) (*Gaussian, error) {
	if cov == nil || len(mean) == 0 || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("%w: invalid Gaussian noise dimensions", slds.ErrDimension)
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	var eigen mat.EigenSym
	if ok := eigen.Factorize(c, false); !ok {
		return nil, fmt.Errorf("%w: failed to factorize Gaussian noise covariance", slds.ErrConfiguration)
	}

	if vals := eigen.Values(nil); vals[0] < minEigen {
		return nil, fmt.Errorf("%w: Gaussian noise covariance is not positive semi-definite", slds.ErrConfiguration)
	}

	g := &Gaussian{
		mean: m,
		cov:  c,
		src:  src,
	}

	if err := g.Reset(); err != nil {
		return nil, err
	}

	return g, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	if g.dist != nil {
		r := g.dist.Rand(nil)
		return mat.NewVecDense(len(r), r)
	}

	// covariance has been validated so this can't fail
	s, err := srand.WithCovN(g.cov, 1, g.rnd)
	if err != nil {
		panic(err)
	}

	sample := mat.VecDenseCopyOf(s.ColView(0))
	sample.AddVec(sample, mat.NewVecDense(len(g.mean), g.mean))

	return sample
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset resets Gaussian noise.
// Time seeded noise is reseeded; noise with a user supplied source keeps drawing from it.
func (g *Gaussian) Reset() error {
	src := g.src
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}

	g.rnd = src
	g.dist = nil

	if dist, ok := distmv.NewNormal(g.mean, g.cov, src); ok {
		g.dist = dist
	}

	return nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
