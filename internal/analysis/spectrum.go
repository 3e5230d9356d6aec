// Package analysis cross-checks tracked modes against a direct spectral
// estimate of the underlying signal.
package analysis

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/mlowitz/modetrack/internal/stream"
)

// Series extracts one coordinate of the trajectory behind a chained pair
// stream, using each pair's X snapshot and the final Y.
func Series(pairs []stream.Pair, idx int) ([]float64, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("analysis: empty stream")
	}
	if idx < 0 || idx >= pairs[0].Dim() {
		return nil, fmt.Errorf("analysis: coordinate %d out of range for dimension %d", idx, pairs[0].Dim())
	}

	out := make([]float64, 0, len(pairs)+1)
	for _, p := range pairs {
		out = append(out, p.X.AtVec(idx))
	}
	out = append(out, pairs[len(pairs)-1].Y.AtVec(idx))
	return out, nil
}

// PowerSpectrum returns the one-sided magnitude spectrum of data. Entry k
// holds the power at frequency k/(len(data)*dt) Hz.
func PowerSpectrum(data []float64) []float64 {
	coeffs := fft.FFTReal(data)
	ps := make([]float64, len(coeffs)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz carrying the most spectral
// power, ignoring the constant component.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	if !(dt > 0) {
		return 0, fmt.Errorf("analysis: sampling interval %v, want positive", dt)
	}
	if len(data) < 4 {
		return 0, fmt.Errorf("analysis: %d samples, want at least 4", len(data))
	}

	ps := PowerSpectrum(data)
	maxIdx := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}
	return float64(maxIdx) / (float64(len(data)) * dt), nil
}
