package sysid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FitOperator solves the weighted least-squares problem for the operator
// mapping the columns of x to the columns of y. The newest (last) column
// carries weight 1 and column j carries rho^(k-1-j). It refits from scratch
// in O(n^2 k) and serves as the reference the incremental estimators are
// checked against.
func FitOperator(x, y *mat.Dense, rho, ridge float64) (*mat.Dense, error) {
	if !(rho > 0 && rho <= 1) {
		return nil, fmt.Errorf("%w: forgetting factor %v outside (0, 1]", ErrInvalidConfig, rho)
	}
	if !(ridge >= 0) || math.IsInf(ridge, 0) {
		return nil, fmt.Errorf("%w: ridge %v, want finite and non-negative", ErrInvalidConfig, ridge)
	}
	n, _ := x.Dims()
	k, err := checkBlock(x, y, n)
	if err != nil {
		return nil, err
	}
	a, _, err := weightedFit(x, y, rho, ridge, defaultCondLimit(n, k))
	return a, err
}

// weightedFit computes both the operator and the inverse of the weighted
// covariance from one thin SVD of the sqrt-weighted snapshot block. With
// X^ = X*sqrt(W) = U*S*V' and Y^ = Y*sqrt(W),
//
//	P = U * inv(S^2 + gamma) * U'
//	A = Y^ * V * (S / (S^2 + gamma)) * U'
//
// which keeps A = (Y*W*X') * P exact, the identity the incremental updates
// preserve.
func weightedFit(x, y *mat.Dense, rho, ridge, condLim float64) (*mat.Dense, *mat.SymDense, error) {
	n, k := x.Dims()

	xs := mat.NewDense(n, k, nil)
	ys := mat.NewDense(n, k, nil)
	for j := 0; j < k; j++ {
		sw := math.Sqrt(math.Pow(rho, float64(k-1-j)))
		for i := 0; i < n; i++ {
			xs.Set(i, j, sw*x.At(i, j))
			ys.Set(i, j, sw*y.At(i, j))
		}
	}

	var svd mat.SVD
	if !svd.Factorize(xs, mat.SVDThin) {
		return nil, nil, &ConditionError{Op: "fit", Cond: math.Inf(1), Limit: condLim}
	}
	svals := svd.Values(nil)
	smax, smin := svals[0], svals[len(svals)-1]
	if ridge == 0 && !(smin*condLim > smax) {
		cond := math.Inf(1)
		if smin > 0 {
			cond = smax / smin
		}
		return nil, nil, &ConditionError{Op: "fit", Cond: cond, Limit: condLim}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	m := len(svals)
	l := mat.NewDense(n, m, nil)  // U scaled by 1/sqrt(s^2+gamma)
	vf := mat.NewDense(k, m, nil) // V scaled by s/(s^2+gamma)
	for j := 0; j < m; j++ {
		d := svals[j]*svals[j] + ridge
		invd := 1 / d
		f := svals[j] * invd
		sq := math.Sqrt(invd)
		for i := 0; i < n; i++ {
			l.Set(i, j, u.At(i, j)*sq)
		}
		for i := 0; i < k; i++ {
			vf.Set(i, j, v.At(i, j)*f)
		}
	}

	p := mat.NewSymDense(n, nil)
	p.SymOuterK(1, l)

	var yv mat.Dense
	yv.Mul(ys, vf)
	a := mat.NewDense(n, n, nil)
	a.Mul(&yv, u.T())

	return a, p, nil
}

// checkBlock validates a pair of snapshot blocks and returns their shared
// column count.
func checkBlock(x, y *mat.Dense, n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: snapshot dimension %d, want at least 1", ErrDimension, n)
	}
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xr != n || yr != n || xc != yc {
		return 0, fmt.Errorf("%w: snapshot blocks %dx%d and %dx%d, want matching %d-row blocks", ErrDimension, xr, xc, yr, yc, n)
	}
	if xc < n {
		return 0, fmt.Errorf("%w: %d pairs cannot determine a %dx%d operator", ErrDimension, xc, n, n)
	}
	if !finiteDense(x) || !finiteDense(y) {
		return 0, ErrInvalidValue
	}
	return xc, nil
}

func residualNorm(a *mat.Dense, x, y mat.Vector) float64 {
	var r mat.VecDense
	r.MulVec(a, x)
	r.SubVec(y, &r)
	return mat.Norm(&r, 2)
}

func finiteDense(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !isFinite(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}

func finiteVec(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		if !isFinite(v.AtVec(i)) {
			return false
		}
	}
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
