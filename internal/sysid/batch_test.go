package sysid

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFitOperator_RecoversExactDynamics(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	a0 := testOperator(2)
	xs, ys := randomPairs(a0, 6, 0, rng)
	x, y := blocks(xs, ys, 0, 6)

	got, err := FitOperator(x, y, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d := relDiff(got, a0); d > 1e-10 {
		t.Errorf("recovered operator differs from truth by %g", d)
	}
}

func TestFitOperator_Validation(t *testing.T) {
	good := mat.NewDense(2, 4, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	nan := mat.NewDense(2, 4, []float64{1, 2, 3, 4, 5, 6, 7, math.NaN()})

	tests := []struct {
		name    string
		x, y    *mat.Dense
		rho     float64
		ridge   float64
		wantErr error
	}{
		{"zero forgetting", good, good, 0, 0, ErrInvalidConfig},
		{"forgetting above one", good, good, 2, 0, ErrInvalidConfig},
		{"negative ridge", good, good, 1, -1, ErrInvalidConfig},
		{"infinite ridge", good, good, 1, math.Inf(1), ErrInvalidConfig},
		{"mismatched blocks", good, mat.NewDense(3, 4, nil), 1, 0, ErrDimension},
		{"mismatched columns", good, mat.NewDense(2, 3, nil), 1, 0, ErrDimension},
		{"too few pairs", mat.NewDense(3, 2, nil), mat.NewDense(3, 2, nil), 1, 0, ErrDimension},
		{"non-finite data", good, nan, 1, 0, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitOperator(tt.x, tt.y, tt.rho, tt.ridge)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FitOperator() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFitOperator_IllConditioned(t *testing.T) {
	// Every snapshot along the same direction: the covariance is singular.
	x := mat.NewDense(2, 4, []float64{
		1, 2, 3, 4,
		2, 4, 6, 8,
	})
	y := mat.NewDense(2, 4, []float64{
		1, 2, 3, 4,
		0, 0, 0, 0,
	})

	_, err := FitOperator(x, y, 1, 0)
	if !errors.Is(err, ErrIllConditioned) {
		t.Fatalf("singular fit: error = %v, want ErrIllConditioned", err)
	}
	var ce *ConditionError
	if !errors.As(err, &ce) || ce.Op != "fit" {
		t.Errorf("singular fit: error %v does not carry fit conditioning detail", err)
	}

	if _, err := FitOperator(x, y, 1, 1e-3); err != nil {
		t.Errorf("ridged fit of singular data: %v, want nil", err)
	}
}

func TestFitOperator_ForgettingTracksRecentRegime(t *testing.T) {
	// First half of the history follows a1, second half a2. A small rho
	// must land near a2; the unweighted fit stays in between.
	a1 := mat.NewDense(2, 2, []float64{0, -1, 1, 0})
	a2 := mat.NewDense(2, 2, []float64{0.5, 0, 0, 0.5})

	rng := rand.New(rand.NewSource(43))
	xs1, ys1 := randomPairs(a1, 8, 0.01, rng)
	xs2, ys2 := randomPairs(a2, 8, 0.01, rng)
	xs := append(xs1, xs2...)
	ys := append(ys1, ys2...)
	x, y := blocks(xs, ys, 0, 16)

	recent, err := FitOperator(x, y, 0.4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d2, d1 := relDiff(recent, a2), relDiff(recent, a1); d2 > 0.05 || d2 >= d1 {
		t.Errorf("rho=0.4 estimate: distance to recent regime %g, to stale regime %g", d2, d1)
	}

	flat, err := FitOperator(x, y, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d := relDiff(flat, a2); d < 0.05 {
		t.Errorf("rho=1 estimate unexpectedly matches the recent regime alone: %g", d)
	}
}
