package matrix

import (
	"math"

	mx "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RowSums returns a slice containing m row sums.
// It panics if m is nil.
func RowSums(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	sum := make([]float64, rows)

	for i := 0; i < rows; i++ {
		sum[i] = floats.Sum(m.RawRowView(i))
	}

	return sum
}

// Identity returns n x n identity matrix.
// It panics if n is not positive.
func Identity(n int) *mat.Dense {
	eye, err := mx.NewDenseValIdentity(n, 1.0)
	if err != nil {
		panic(err)
	}

	return eye
}

// SymmetryError returns the largest absolute difference between m and its transpose.
// It returns +Inf if m is not square.
func SymmetryError(m mat.Matrix) float64 {
	r, c := m.Dims()
	if r != c {
		return math.Inf(1)
	}

	var maxDiff float64
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			maxDiff = math.Max(maxDiff, math.Abs(m.At(i, j)-m.At(j, i)))
		}
	}

	return maxDiff
}

// IsSymmetric returns true if m is square and symmetric within tol.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	return SymmetryError(m) <= tol
}

// Symmetrize returns (m + m')/2 as a symmetric matrix.
// It panics if m is not square.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	r, c := m.Dims()
	if r != c {
		panic(mat.ErrSquare)
	}

	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return sym
}

// IsFinite returns true if none of the elements of m is NaN or infinite.
func IsFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}
