package metrics

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

// NewStability counts estimates whose spectral radius exceeds threshold;
// use 1.0 to score discrete-time stability.
func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(step int, op *mat.Dense, eigs []complex128, residual float64) {
	s.samples++
	for _, l := range eigs {
		if cmplx.Abs(l) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

type SpectralPeak struct {
	name string
	peak float64
}

func NewSpectralPeak() *SpectralPeak {
	return &SpectralPeak{
		name: "spectral_peak",
	}
}

func (s *SpectralPeak) Name() string {
	return s.name
}

func (s *SpectralPeak) Observe(step int, op *mat.Dense, eigs []complex128, residual float64) {
	for _, l := range eigs {
		s.peak = math.Max(s.peak, cmplx.Abs(l))
	}
}

func (s *SpectralPeak) Value() float64 {
	return s.peak
}

func (s *SpectralPeak) Reset() {
	s.peak = 0
}
