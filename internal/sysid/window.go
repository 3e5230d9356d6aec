package sysid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Window estimates the linear operator mapping snapshot pairs (x, y) over a
// sliding window of the w most recent pairs. Each update ages every held
// weight by the forgetting factor rho, admits the new pair at weight 1 and
// evicts the oldest pair at its aged weight rho^w, correcting the operator
// and the inverse covariance in O(n^2) instead of refitting.
//
// A Window is not safe for concurrent use.
type Window struct {
	n   int
	w   int
	rho float64

	ridge   float64
	condLim float64

	rw    float64 // rho^w, the weight at which the oldest pair leaves
	invRw float64

	fitted bool

	a *mat.Dense    // operator estimate, n x n
	p *mat.SymDense // inverse of the weighted snapshot covariance

	// ring buffer of held pairs; head indexes the oldest
	bufX []*mat.VecDense
	bufY []*mat.VecDense
	head int

	// update scratch, reused so steady-state updates do not allocate
	pn      *mat.SymDense
	an      *mat.Dense
	px, pxo *mat.VecDense
	r1, r2  *mat.VecDense
}

// NewWindow returns an unfitted estimator for n-dimensional snapshots over a
// window of w pairs with forgetting factor rho in (0, 1]. rho = 1 weights
// every held pair equally.
func NewWindow(n, w int, rho float64, opts ...Option) (*Window, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: dimension %d, want at least 1", ErrInvalidConfig, n)
	}
	if w < n {
		return nil, fmt.Errorf("%w: window of %d pairs cannot determine a %dx%d operator", ErrInvalidConfig, w, n, n)
	}
	if !(rho > 0 && rho <= 1) {
		return nil, fmt.Errorf("%w: forgetting factor %v outside (0, 1]", ErrInvalidConfig, rho)
	}
	rw := math.Pow(rho, float64(w))
	if rw == 0 {
		return nil, fmt.Errorf("%w: forgetting factor %v underflows across %d pairs", ErrInvalidConfig, rho, w)
	}
	o, err := resolveOptions(n, w, opts)
	if err != nil {
		return nil, err
	}

	e := &Window{
		n:       n,
		w:       w,
		rho:     rho,
		ridge:   o.ridge,
		condLim: o.condLim,
		rw:      rw,
		invRw:   1 / rw,
		bufX:    make([]*mat.VecDense, w),
		bufY:    make([]*mat.VecDense, w),
		pn:      mat.NewSymDense(n, nil),
		an:      mat.NewDense(n, n, nil),
		px:      mat.NewVecDense(n, nil),
		pxo:     mat.NewVecDense(n, nil),
		r1:      mat.NewVecDense(n, nil),
		r2:      mat.NewVecDense(n, nil),
	}
	for i := range e.bufX {
		e.bufX[i] = mat.NewVecDense(n, nil)
		e.bufY[i] = mat.NewVecDense(n, nil)
	}
	return e, nil
}

// Fit initializes the estimator from exactly w snapshot pairs given as the
// columns of x and y, oldest first. The newest column carries weight 1 and
// column j carries rho^(w-1-j). Fitting twice returns [ErrAlreadyFitted].
func (e *Window) Fit(x, y *mat.Dense) error {
	if e.fitted {
		return ErrAlreadyFitted
	}
	k, err := checkBlock(x, y, e.n)
	if err != nil {
		return err
	}
	if k != e.w {
		return fmt.Errorf("%w: %d pairs supplied to a window of %d", ErrDimension, k, e.w)
	}

	a, p, err := weightedFit(x, y, e.rho, e.ridge, e.condLim)
	if err != nil {
		return err
	}

	e.a, e.p = a, p
	for j := 0; j < e.w; j++ {
		e.bufX[j].CopyVec(x.ColView(j))
		e.bufY[j].CopyVec(y.ColView(j))
	}
	e.head = 0
	e.fitted = true
	return nil
}

// Update slides the window one pair forward: x and y join as the newest pair
// and the oldest pair is evicted. On success the estimate equals the direct
// weighted fit of the new window contents up to round-off. On any error the
// estimator and its window are exactly as they were before the call.
func (e *Window) Update(x, y mat.Vector) error {
	if !e.fitted {
		return ErrNotFitted
	}
	if x.Len() != e.n || y.Len() != e.n {
		return fmt.Errorf("%w: pair of lengths %d and %d, want %d", ErrDimension, x.Len(), y.Len(), e.n)
	}
	if !finiteVec(x) || !finiteVec(y) {
		return ErrInvalidValue
	}

	xold, yold := e.bufX[e.head], e.bufY[e.head]

	// Age every held weight one step, then probe the rank-2 exchange that
	// admits x and evicts xold. Nothing below mutates the estimator until
	// the conditioning check has passed.
	e.pn.ScaleSym(1/e.rho, e.p)
	e.px.MulVec(e.pn, x)
	e.pxo.MulVec(e.pn, xold)

	a11 := mat.Dot(x, e.px)
	a12 := mat.Dot(xold, e.px)
	a22 := mat.Dot(xold, e.pxo)

	g11 := 1 + a11
	g12 := a12
	g22 := a22 - e.invRw
	det := g11*g22 - g12*g12
	scale := g11*g11 + 2*g12*g12 + g22*g22

	// The exchanged covariance is singular exactly when det vanishes.
	// Written so a NaN from degenerate data also rejects.
	if !(math.Abs(det)*e.condLim > scale) {
		return &ConditionError{Op: "update", Cond: scale / math.Abs(det), Limit: e.condLim}
	}

	// Woodbury correction of the inverse covariance on the 2x2 block.
	e.pn.SymRankOne(e.pn, -g22/det, e.px)
	e.pn.SymRankOne(e.pn, -g11/det, e.pxo)
	e.pn.RankTwo(e.pn, g12/det, e.px, e.pxo)

	// Residuals of the entering and leaving pairs against the current A.
	e.r1.MulVec(e.a, x)
	e.r1.SubVec(y, e.r1)
	e.r2.MulVec(e.a, xold)
	e.r2.SubVec(yold, e.r2)

	// Gains against the exchanged inverse covariance.
	e.px.MulVec(e.pn, x)
	e.pxo.MulVec(e.pn, xold)

	e.an.RankOne(e.a, 1, e.r1, e.px)
	e.an.RankOne(e.an, -e.rw, e.r2, e.pxo)

	// Commit.
	e.a, e.an = e.an, e.a
	e.p, e.pn = e.pn, e.p
	xold.CopyVec(x)
	yold.CopyVec(y)
	e.head = (e.head + 1) % e.w

	return nil
}

// Residual returns the Euclidean norm of y - A*x against the current
// estimate without touching the window.
func (e *Window) Residual(x, y mat.Vector) (float64, error) {
	if !e.fitted {
		return 0, ErrNotFitted
	}
	if x.Len() != e.n || y.Len() != e.n {
		return 0, fmt.Errorf("%w: pair of lengths %d and %d, want %d", ErrDimension, x.Len(), y.Len(), e.n)
	}
	return residualNorm(e.a, x, y), nil
}

// Operator returns a copy of the current operator estimate, or nil before Fit.
func (e *Window) Operator() *mat.Dense {
	if !e.fitted {
		return nil
	}
	return mat.DenseCopyOf(e.a)
}

// Precision returns a copy of the inverse weighted covariance, or nil before Fit.
func (e *Window) Precision() *mat.SymDense {
	if !e.fitted {
		return nil
	}
	out := mat.NewSymDense(e.n, nil)
	out.CopySym(e.p)
	return out
}

// Pair returns copies of the i-th held snapshot pair, oldest first.
func (e *Window) Pair(i int) (x, y *mat.VecDense, err error) {
	if !e.fitted {
		return nil, nil, ErrNotFitted
	}
	if i < 0 || i >= e.w {
		return nil, nil, fmt.Errorf("%w: pair index %d outside window of %d", ErrDimension, i, e.w)
	}
	j := (e.head + i) % e.w
	return mat.VecDenseCopyOf(e.bufX[j]), mat.VecDenseCopyOf(e.bufY[j]), nil
}

// Dim returns the snapshot dimension n.
func (e *Window) Dim() int { return e.n }

// WindowLen returns the number of pairs the window holds once fitted.
func (e *Window) WindowLen() int { return e.w }

// Forgetting returns the forgetting factor rho.
func (e *Window) Forgetting() float64 { return e.rho }

// Ready reports whether the estimator has been fitted.
func (e *Window) Ready() bool { return e.fitted }
