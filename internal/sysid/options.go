package sysid

import (
	"fmt"
	"math"
)

const macheps = 0x1p-52

// Option adjusts estimator construction.
type Option func(*options)

type options struct {
	ridge   float64
	condLim float64
}

// WithRidge adds gamma to every diagonal entry of the weighted snapshot
// covariance before inversion (Tikhonov regularization). The term becomes
// part of the carried covariance, so forgetting decays it across subsequent
// updates; callers that need a persistent floor refit periodically.
func WithRidge(gamma float64) Option {
	return func(o *options) { o.ridge = gamma }
}

// WithCondLimit overrides the largest acceptable conditioning estimate of
// the windowed covariance. Fits and updates that would cross the limit are
// rejected with [ErrIllConditioned]. The default scales machine epsilon by
// the problem size, following the usual rank-detection convention.
func WithCondLimit(c float64) Option {
	return func(o *options) { o.condLim = c }
}

func defaultCondLimit(n, k int) float64 {
	return 1 / (macheps * float64(max(n, k)))
}

func resolveOptions(n, k int, opts []Option) (options, error) {
	o := options{condLim: defaultCondLimit(n, k)}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.ridge >= 0) || math.IsInf(o.ridge, 0) {
		return options{}, fmt.Errorf("%w: ridge %v, want finite and non-negative", ErrInvalidConfig, o.ridge)
	}
	if !(o.condLim >= 1) {
		return options{}, fmt.Errorf("%w: condition limit %v, want at least 1", ErrInvalidConfig, o.condLim)
	}
	return o, nil
}
