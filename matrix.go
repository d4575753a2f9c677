package fastslam

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// symTolerance bounds how far a matrix's (i,j) and (j,i) entries may drift
// from each other, due to floating-point round-off, before it is rejected
// as non-symmetric.
const symTolerance = 1e-9

// checkSquareDims reports an error if m is not a want-by-want square
// matrix. Grounded on gokalman's "check dimensions ASAP" constructors; this
// module only ever deals in fixed 2x2/3x3 matrices, so a single square-size
// check replaces gokalman's more general DimensionAgreement machinery.
func checkSquareDims(m mat.Matrix, name string, want int) error {
	r, c := m.Dims()
	if r != c {
		return fmt.Errorf("fastslam: %s must be square, got %dx%d", name, r, c)
	}
	if r != want {
		return fmt.Errorf("fastslam: %s must be %dx%d, got %dx%d", name, want, want, r, c)
	}
	return nil
}

// Identity returns an n-by-n identity matrix.
func Identity(n int) *mat.SymDense {
	vals := make([]float64, n*n)
	for i := 0; i < n; i++ {
		vals[i*n+i] = 1
	}
	return mat.NewSymDense(n, vals)
}

// AsSymDense returns m as a SymDense, or an error if m isn't square or
// isn't symmetric within symTolerance.
func AsSymDense(m *mat.Dense) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, errors.New("fastslam: matrix must be square")
	}
	vals := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > symTolerance {
				return nil, errors.New("fastslam: matrix is not symmetric")
			}
			vals[i*c+j] = m.At(i, j)
		}
	}
	return mat.NewSymDense(r, vals), nil
}
