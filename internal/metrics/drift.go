package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// OperatorDrift reports the mean Frobenius distance between consecutive
// operator estimates. Near zero the dynamics look stationary; spikes mark
// regime changes moving through the window.
type OperatorDrift struct {
	name    string
	prev    *mat.Dense
	sum     float64
	samples int
}

func NewOperatorDrift() *OperatorDrift {
	return &OperatorDrift{
		name: "operator_drift",
	}
}

func (o *OperatorDrift) Name() string {
	return o.name
}

func (o *OperatorDrift) Observe(step int, op *mat.Dense, eigs []complex128, residual float64) {
	if o.prev != nil {
		var diff mat.Dense
		diff.Sub(op, o.prev)
		o.sum += mat.Norm(&diff, 2)
		o.samples++
	}
	o.prev = op
}

func (o *OperatorDrift) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.sum / float64(o.samples)
}

func (o *OperatorDrift) Reset() {
	o.prev = nil
	o.sum = 0
	o.samples = 0
}
