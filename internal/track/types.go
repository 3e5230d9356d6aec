package track

import "gonum.org/v1/gonum/mat"

// Metric accumulates a scalar over a tracking run. Observe receives the
// step index, the current operator estimate, its discrete-time eigenvalues
// and the one-step residual of the newest pair. The operator and eigenvalue
// slices are shared read-only with other metrics.
type Metric interface {
	Name() string
	Observe(step int, op *mat.Dense, eigs []complex128, residual float64)
	Value() float64
	Reset()
}

// Observer is called after every accepted estimate with the continuous-time
// eigenvalues at that step.
type Observer interface {
	OnStep(step int, t float64, eigs []complex128, residual float64)
}

// Config controls a tracking run.
type Config struct {
	Window             int     // pairs held by the sliding window
	Forgetting         float64 // forgetting factor in (0, 1]
	Ridge              float64 // optional Tikhonov term for the initial fit
	CondLimit          float64 // conditioning acceptance limit, 0 for the default
	Dt                 float64 // sampling interval of the stream
	SkipIllConditioned bool    // drop rejected samples instead of halting
}

// DefaultConfig returns a tracking configuration with conservative values.
func DefaultConfig() Config {
	return Config{
		Window:             10,
		Forgetting:         1.0,
		Dt:                 0.01,
		SkipIllConditioned: true,
	}
}

// Result collects the estimate history of one run. Index 0 is the initial
// fit; later entries follow one accepted update each.
type Result struct {
	Steps     int              // recorded estimates, including the initial fit
	Skipped   int              // samples dropped by the skip policy
	Times     []float64        // time of the newest snapshot per estimate
	Eigs      [][]complex128   // continuous-time eigenvalues per estimate
	Residuals []float64        // one-step residual of the newest pair
	Metrics   map[string]float64
	Final     *mat.Dense // operator estimate after the last accepted sample
}
