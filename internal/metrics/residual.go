package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type ResidualMean struct {
	name    string
	sum     float64
	samples int
}

func NewResidualMean() *ResidualMean {
	return &ResidualMean{
		name: "residual_mean",
	}
}

func (r *ResidualMean) Name() string {
	return r.name
}

func (r *ResidualMean) Observe(step int, op *mat.Dense, eigs []complex128, residual float64) {
	r.sum += residual
	r.samples++
}

func (r *ResidualMean) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *ResidualMean) Reset() {
	r.sum = 0
	r.samples = 0
}

type ResidualMax struct {
	name string
	max  float64
}

func NewResidualMax() *ResidualMax {
	return &ResidualMax{
		name: "residual_max",
	}
}

func (r *ResidualMax) Name() string {
	return r.name
}

func (r *ResidualMax) Observe(step int, op *mat.Dense, eigs []complex128, residual float64) {
	r.max = math.Max(r.max, residual)
}

func (r *ResidualMax) Value() float64 {
	return r.max
}

func (r *ResidualMax) Reset() {
	r.max = 0
}
