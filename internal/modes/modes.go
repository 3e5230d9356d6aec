// Package modes turns operator estimates into spectral quantities: discrete
// and continuous-time eigenvalues, mode shapes, oscillation frequencies and
// growth rates. Everything here is a pure function of its inputs; estimator
// state is never touched.
package modes

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape indicates a non-square operator.
	ErrShape = errors.New("modes: operator must be square")

	// ErrTimeStep indicates a non-positive sampling interval.
	ErrTimeStep = errors.New("modes: time step must be positive")

	// ErrEigen indicates the eigendecomposition did not converge.
	ErrEigen = errors.New("modes: eigendecomposition failed")
)

// Mode pairs one eigenvalue of the operator with its right eigenvector.
type Mode struct {
	Value complex128
	Shape []complex128
}

// Discrete returns the eigenvalues of the operator, sorted by descending
// magnitude with ties broken by descending imaginary part so conjugate pairs
// sit adjacent and orderings are stable across calls.
func Discrete(a *mat.Dense) ([]complex128, error) {
	if err := checkSquare(a); err != nil {
		return nil, err
	}
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, ErrEigen
	}
	vals := eig.Values(nil)
	sortEigs(vals)
	return vals, nil
}

// Continuous returns the continuous-time eigenvalues of an operator that
// advances the state by dt: log(lambda)/dt for each discrete eigenvalue.
func Continuous(a *mat.Dense, dt float64) ([]complex128, error) {
	vals, err := Discrete(a)
	if err != nil {
		return nil, err
	}
	return ToContinuous(vals, dt)
}

// ToContinuous maps discrete-time eigenvalues to continuous time for a
// sampling interval dt. A zero eigenvalue maps to -Inf growth.
func ToContinuous(eigs []complex128, dt float64) ([]complex128, error) {
	if !(dt > 0) {
		return nil, ErrTimeStep
	}
	out := make([]complex128, len(eigs))
	for i, l := range eigs {
		out[i] = cmplx.Log(l) / complex(dt, 0)
	}
	return out, nil
}

// Decompose returns the full modal decomposition of the operator, sorted
// like [Discrete]. Shapes are the right eigenvectors as LAPACK returns them,
// unit length with arbitrary phase.
func Decompose(a *mat.Dense) ([]Mode, error) {
	if err := checkSquare(a); err != nil {
		return nil, err
	}
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenRight) {
		return nil, ErrEigen
	}
	vals := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	n := len(vals)
	ms := make([]Mode, n)
	for j := 0; j < n; j++ {
		shape := make([]complex128, n)
		for i := 0; i < n; i++ {
			shape[i] = vecs.At(i, j)
		}
		ms[j] = Mode{Value: vals[j], Shape: shape}
	}
	sort.SliceStable(ms, func(i, j int) bool {
		return eigLess(ms[j].Value, ms[i].Value)
	})
	return ms, nil
}

// SpectralRadius returns the largest eigenvalue magnitude of the operator.
func SpectralRadius(a *mat.Dense) (float64, error) {
	vals, err := Discrete(a)
	if err != nil {
		return 0, err
	}
	return cmplx.Abs(vals[0]), nil
}

// Frequencies extracts oscillation frequencies in cycles per unit time from
// continuous-time eigenvalues.
func Frequencies(eigs []complex128) []float64 {
	out := make([]float64, len(eigs))
	for i, l := range eigs {
		out[i] = imag(l) / (2 * math.Pi)
	}
	return out
}

// GrowthRates extracts exponential growth rates from continuous-time
// eigenvalues. Negative values decay.
func GrowthRates(eigs []complex128) []float64 {
	out := make([]float64, len(eigs))
	for i, l := range eigs {
		out[i] = real(l)
	}
	return out
}

func checkSquare(a *mat.Dense) error {
	r, c := a.Dims()
	if r != c || r == 0 {
		return ErrShape
	}
	return nil
}

// eigLess orders by magnitude, then imaginary part.
func eigLess(a, b complex128) bool {
	am, bm := cmplx.Abs(a), cmplx.Abs(b)
	if am != bm {
		return am < bm
	}
	return imag(a) < imag(b)
}

func sortEigs(vals []complex128) {
	sort.SliceStable(vals, func(i, j int) bool {
		return eigLess(vals[j], vals[i])
	})
}
