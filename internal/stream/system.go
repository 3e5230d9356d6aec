package stream

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/mlowitz/modetrack/internal/modes"
)

// System is a discrete-time map with a closed-form step. Implementations
// may vary with the step index k to model time-varying dynamics.
type System interface {
	Dim() int
	// Step returns the state one sample after x, taken at step index k.
	Step(x *mat.VecDense, k int) *mat.VecDense
}

// Rotation advances a planar state by a fixed angle Omega*Dt per sample.
// Its continuous-time eigenvalues are +/- i*Omega.
type Rotation struct {
	Omega float64
	Dt    float64
}

func NewRotation(omega, dt float64) *Rotation {
	return &Rotation{Omega: omega, Dt: dt}
}

func (r *Rotation) Dim() int { return 2 }

func (r *Rotation) Step(x *mat.VecDense, k int) *mat.VecDense {
	return rotate(x, r.Omega*r.Dt, 1)
}

// Drift is a planar rotation whose angular frequency moves linearly in time,
// omega(t) = Omega + Rate*t. Each step applies the instantaneous frequency
// at its start.
type Drift struct {
	Omega float64
	Rate  float64
	Dt    float64
}

func NewDrift(omega, rate, dt float64) *Drift {
	return &Drift{Omega: omega, Rate: rate, Dt: dt}
}

func (d *Drift) Dim() int { return 2 }

// OmegaAt returns the instantaneous angular frequency at step k.
func (d *Drift) OmegaAt(k int) float64 {
	return d.Omega + d.Rate*float64(k)*d.Dt
}

func (d *Drift) Step(x *mat.VecDense, k int) *mat.VecDense {
	return rotate(x, d.OmegaAt(k)*d.Dt, 1)
}

// Damped is a planar rotation scaled by exp(Growth*Dt) per sample. Negative
// growth spirals in.
type Damped struct {
	Omega  float64
	Growth float64
	Dt     float64
}

func NewDamped(omega, growth, dt float64) *Damped {
	return &Damped{Omega: omega, Growth: growth, Dt: dt}
}

func (d *Damped) Dim() int { return 2 }

func (d *Damped) Step(x *mat.VecDense, k int) *mat.VecDense {
	return rotate(x, d.Omega*d.Dt, math.Exp(d.Growth*d.Dt))
}

func rotate(x *mat.VecDense, theta, scale float64) *mat.VecDense {
	c, s := math.Cos(theta), math.Sin(theta)
	out := mat.NewVecDense(2, nil)
	out.SetVec(0, scale*(c*x.AtVec(0)-s*x.AtVec(1)))
	out.SetVec(1, scale*(s*x.AtVec(0)+c*x.AtVec(1)))
	return out
}

// RandomStable applies a fixed random operator rescaled to a chosen spectral
// radius, so trajectories stay bounded for radius below 1.
type RandomStable struct {
	a *mat.Dense
}

func NewRandomStable(n int, radius float64, seed int64) (*RandomStable, error) {
	if n < 1 {
		return nil, fmt.Errorf("stream: random system dimension %d, want at least 1", n)
	}
	if !(radius > 0) {
		return nil, fmt.Errorf("stream: random system spectral radius %v, want positive", radius)
	}
	rng := rand.New(rand.NewSource(seed))
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	r, err := modes.SpectralRadius(a)
	if err != nil {
		return nil, fmt.Errorf("stream: random system: %w", err)
	}
	if r == 0 {
		return nil, fmt.Errorf("stream: random system drew a nilpotent operator, change the seed")
	}
	a.Scale(radius/r, a)
	return &RandomStable{a: a}, nil
}

func (r *RandomStable) Dim() int {
	n, _ := r.a.Dims()
	return n
}

// Operator returns a copy of the underlying map, the ground truth for
// estimator checks.
func (r *RandomStable) Operator() *mat.Dense {
	return mat.DenseCopyOf(r.a)
}

func (r *RandomStable) Step(x *mat.VecDense, k int) *mat.VecDense {
	out := mat.NewVecDense(x.Len(), nil)
	out.MulVec(r.a, x)
	return out
}

// Generate walks the system steps samples from x0 and returns the snapshot
// pairs (z_k, z_{k+1}), where z is the trajectory observed through additive
// Gaussian noise of the given standard deviation. Consecutive pairs share
// their snapshot noise, as a recorded stream would.
func Generate(sys System, x0 *mat.VecDense, steps int, noise float64, seed int64) ([]Pair, error) {
	if steps < 1 {
		return nil, fmt.Errorf("stream: %d steps, want at least 1", steps)
	}
	if x0 == nil || x0.Len() != sys.Dim() {
		return nil, fmt.Errorf("stream: initial state dimension does not match system dimension %d", sys.Dim())
	}
	if !(noise >= 0) {
		return nil, fmt.Errorf("stream: noise level %v, want non-negative", noise)
	}

	rng := rand.New(rand.NewSource(seed))
	n := sys.Dim()

	observe := func(x *mat.VecDense) *mat.VecDense {
		if noise == 0 {
			return mat.VecDenseCopyOf(x)
		}
		z := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			z.SetVec(i, x.AtVec(i)+noise*rng.NormFloat64())
		}
		return z
	}

	pairs := make([]Pair, steps)
	x := mat.VecDenseCopyOf(x0)
	z := observe(x)
	for k := 0; k < steps; k++ {
		x = sys.Step(x, k)
		znext := observe(x)
		pairs[k] = Pair{X: z, Y: znext}
		z = znext
	}
	return pairs, nil
}
