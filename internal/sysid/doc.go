// Package sysid estimates linear dynamics from streaming snapshot pairs.
//
// The package provides three estimators of the operator A in y = A*x:
//
//   - [Window]: sliding window over the w most recent pairs, O(n^2) per sample
//   - [Online]: growing history with exponential forgetting, O(n^2) per sample
//   - [FitOperator]: direct weighted solve, the from-scratch reference
//
// # Incremental updates
//
// Window.Update replaces a full refit with a fused rank-2 correction of the
// inverse snapshot covariance: the new pair enters at weight 1, every held
// weight ages by the forgetting factor, and the oldest pair leaves at its
// aged weight, all in a single Woodbury step.
//
//	est, _ := sysid.NewWindow(2, 10, 1.0)
//	if err := est.Fit(x0, y0); err != nil { ... }
//	for src.Next() {
//	    if err := est.Update(x, y); err != nil { ... }
//	}
//	a := est.Operator()
//
// # Failure atomicity
//
// An update rejected with [ErrIllConditioned] leaves the estimator exactly as
// it was, so callers may drop the offending sample and continue.
//
// # Thread safety
//
// Estimator instances are NOT thread-safe. Independent instances share no
// state and may run fully in parallel.
package sysid
