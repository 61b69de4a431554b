package noise

import (
	"golang.org/x/exp/rand"

	slds "github.com/milosgajdos/go-slds"
	"gonum.org/v1/gonum/mat"
)

// minEigen is the smallest covariance eigenvalue tolerated as round-off
const minEigen = -1e-9

var (
	_ slds.Noise = (*Gaussian)(nil)
	_ slds.Noise = (*Zero)(nil)
)

// New returns noise with the given mean and covariance.
// It returns Zero noise when both mean and cov are zero and Gaussian noise otherwise.
func New(mean []float64, cov mat.Symmetric, src rand.Source) (slds.Noise, error) {
	if cov != nil && len(mean) == cov.SymmetricDim() && isZero(mean, cov) {
		return NewZero(len(mean))
	}

	return NewGaussian(mean, cov, src)
}

func isZero(mean []float64, cov mat.Symmetric) bool {
	for _, v := range mean {
		if v != 0 {
			return false
		}
	}

	n := cov.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if cov.At(i, j) != 0 {
				return false
			}
		}
	}

	return true
}
