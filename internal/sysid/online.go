package sysid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Online estimates the linear operator over the entire history seen so far,
// discounting older pairs by the forgetting factor. Nothing is evicted; with
// rho = 1 it is the ordinary least-squares fit of all pairs. Each update is
// a rank-1 correction of the inverse covariance.
//
// An Online is not safe for concurrent use.
type Online struct {
	n   int
	rho float64

	ridge   float64
	condLim float64

	fitted bool
	seen   int

	a *mat.Dense
	p *mat.SymDense

	pn *mat.SymDense
	an *mat.Dense
	px *mat.VecDense
	r  *mat.VecDense
}

// NewOnline returns an unfitted growing-history estimator for n-dimensional
// snapshots with forgetting factor rho in (0, 1].
func NewOnline(n int, rho float64, opts ...Option) (*Online, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: dimension %d, want at least 1", ErrInvalidConfig, n)
	}
	if !(rho > 0 && rho <= 1) {
		return nil, fmt.Errorf("%w: forgetting factor %v outside (0, 1]", ErrInvalidConfig, rho)
	}
	o, err := resolveOptions(n, n, opts)
	if err != nil {
		return nil, err
	}
	return &Online{
		n:       n,
		rho:     rho,
		ridge:   o.ridge,
		condLim: o.condLim,
		pn:      mat.NewSymDense(n, nil),
		an:      mat.NewDense(n, n, nil),
		px:      mat.NewVecDense(n, nil),
		r:       mat.NewVecDense(n, nil),
	}, nil
}

// Fit initializes the estimator from at least n snapshot pairs given as the
// columns of x and y, oldest first, weighted like [FitOperator].
func (e *Online) Fit(x, y *mat.Dense) error {
	if e.fitted {
		return ErrAlreadyFitted
	}
	k, err := checkBlock(x, y, e.n)
	if err != nil {
		return err
	}
	a, p, err := weightedFit(x, y, e.rho, e.ridge, e.condLim)
	if err != nil {
		return err
	}
	e.a, e.p = a, p
	e.seen = k
	e.fitted = true
	return nil
}

// Update absorbs one new pair at weight 1 after aging every previous weight
// by rho. On any error the estimator is exactly as it was before the call.
func (e *Online) Update(x, y mat.Vector) error {
	if !e.fitted {
		return ErrNotFitted
	}
	if x.Len() != e.n || y.Len() != e.n {
		return fmt.Errorf("%w: pair of lengths %d and %d, want %d", ErrDimension, x.Len(), y.Len(), e.n)
	}
	if !finiteVec(x) || !finiteVec(y) {
		return ErrInvalidValue
	}

	e.pn.ScaleSym(1/e.rho, e.p)
	e.px.MulVec(e.pn, x)
	a11 := mat.Dot(x, e.px)
	denom := 1 + a11

	// denom is at least 1 for an intact positive definite covariance, so a
	// small or negative value means round-off has won. NaN also rejects.
	if !(denom*e.condLim > 1+math.Abs(a11)) {
		return &ConditionError{Op: "update", Cond: (1 + math.Abs(a11)) / denom, Limit: e.condLim}
	}

	e.pn.SymRankOne(e.pn, -1/denom, e.px)

	e.r.MulVec(e.a, x)
	e.r.SubVec(y, e.r)

	// With P+ the exchanged inverse, P+*x = px/denom, so one rank-1 term
	// corrects the operator.
	e.an.RankOne(e.a, 1/denom, e.r, e.px)

	e.a, e.an = e.an, e.a
	e.p, e.pn = e.pn, e.p
	e.seen++
	return nil
}

// Residual returns the Euclidean norm of y - A*x against the current estimate.
func (e *Online) Residual(x, y mat.Vector) (float64, error) {
	if !e.fitted {
		return 0, ErrNotFitted
	}
	if x.Len() != e.n || y.Len() != e.n {
		return 0, fmt.Errorf("%w: pair of lengths %d and %d, want %d", ErrDimension, x.Len(), y.Len(), e.n)
	}
	return residualNorm(e.a, x, y), nil
}

// Operator returns a copy of the current operator estimate, or nil before Fit.
func (e *Online) Operator() *mat.Dense {
	if !e.fitted {
		return nil
	}
	return mat.DenseCopyOf(e.a)
}

// Precision returns a copy of the inverse weighted covariance, or nil before Fit.
func (e *Online) Precision() *mat.SymDense {
	if !e.fitted {
		return nil
	}
	out := mat.NewSymDense(e.n, nil)
	out.CopySym(e.p)
	return out
}

// Dim returns the snapshot dimension n.
func (e *Online) Dim() int { return e.n }

// Seen returns the number of pairs absorbed so far.
func (e *Online) Seen() int { return e.seen }

// Forgetting returns the forgetting factor rho.
func (e *Online) Forgetting() float64 { return e.rho }

// Ready reports whether the estimator has been fitted.
func (e *Online) Ready() bool { return e.fitted }
