package analysis

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mlowitz/modetrack/internal/stream"
)

// rotationSeries samples cos(omega*t) by walking a planar rotation, sized so
// the record holds a whole number of cycles.
func rotationSeries(t *testing.T, omega, dt float64, steps int) []stream.Pair {
	t.Helper()
	x0 := mat.NewVecDense(2, []float64{1, 0})
	pairs, err := stream.Generate(stream.NewRotation(omega, dt), x0, steps, 0, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return pairs
}

func TestSeries_FollowsTrajectory(t *testing.T) {
	pairs := rotationSeries(t, 2.0, 0.05, 10)

	data, err := Series(pairs, 0)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}

	if len(data) != len(pairs)+1 {
		t.Fatalf("expected %d samples, got %d", len(pairs)+1, len(data))
	}
	for k, p := range pairs {
		if data[k] != p.X.AtVec(0) {
			t.Errorf("sample %d does not match the pair snapshot", k)
		}
	}
	if data[len(data)-1] != pairs[len(pairs)-1].Y.AtVec(0) {
		t.Error("final sample does not match the last Y snapshot")
	}
}

func TestSeries_Validation(t *testing.T) {
	if _, err := Series(nil, 0); err == nil {
		t.Error("expected error for an empty stream")
	}

	pairs := rotationSeries(t, 2.0, 0.05, 4)
	if _, err := Series(pairs, 2); err == nil {
		t.Error("expected error for an out-of-range coordinate")
	}
	if _, err := Series(pairs, -1); err == nil {
		t.Error("expected error for a negative coordinate")
	}
}

func TestDominantFrequency_RecoversRotation(t *testing.T) {
	// 199 pairs yield 200 samples at dt=0.05: bins sit every 0.1 Hz, and
	// 0.8 Hz lands exactly on bin 8.
	const (
		dt   = 0.05
		want = 0.8
	)
	pairs := rotationSeries(t, 2*math.Pi*want, dt, 199)

	data, err := Series(pairs, 0)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}

	got, err := DominantFrequency(data, dt)
	if err != nil {
		t.Fatalf("DominantFrequency: %v", err)
	}
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("dominant frequency %f, want %f", got, want)
	}
}

func TestDominantFrequency_Validation(t *testing.T) {
	data := []float64{1, 0, -1, 0, 1, 0, -1, 0}

	if _, err := DominantFrequency(data, 0); err == nil {
		t.Error("expected error for zero sampling interval")
	}
	if _, err := DominantFrequency(data[:3], 0.1); err == nil {
		t.Error("expected error for too few samples")
	}
}

func TestPowerSpectrum_Length(t *testing.T) {
	data := make([]float64, 64)
	data[1] = 1

	ps := PowerSpectrum(data)
	if len(ps) != 33 {
		t.Errorf("expected 33 one-sided bins for 64 samples, got %d", len(ps))
	}
}
