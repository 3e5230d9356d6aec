package track_test

import (
	"context"
	"io"
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/mlowitz/modetrack/internal/stream"
	"github.com/mlowitz/modetrack/internal/sysid"
	"github.com/mlowitz/modetrack/internal/track"
)

var _ = Describe("Tracker", func() {
	var (
		ctx   context.Context
		quiet *logrus.Logger
		x0    *mat.VecDense
	)

	BeforeEach(func() {
		ctx = context.Background()
		quiet = logrus.New()
		quiet.SetOutput(io.Discard)
		x0 = mat.NewVecDense(2, []float64{1, 0})
	})

	Describe("steady rotation", func() {
		const (
			omega = 2.0
			dt    = 0.05
		)

		It("recovers the angular frequency at every step", func() {
			pairs, err := stream.Generate(stream.NewRotation(omega, dt), x0, 60, 0, 1)
			Expect(err).NotTo(HaveOccurred())

			cfg := track.DefaultConfig()
			cfg.Window = 10
			cfg.Dt = dt
			tk := track.New(cfg)
			tk.SetLogger(quiet)

			res, err := tk.Run(ctx, stream.NewSliceSource(pairs))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(51))
			Expect(res.Skipped).To(BeZero())
			Expect(res.Eigs).To(HaveLen(51))

			for i, eigs := range res.Eigs {
				Expect(eigs).To(HaveLen(2))
				Expect(cmplx.Abs(eigs[0]-complex(0, omega))).To(BeNumerically("<", 1e-6),
					"step %d: leading mode %v", i, eigs[0])
				Expect(cmplx.Abs(eigs[1]-complex(0, -omega))).To(BeNumerically("<", 1e-6),
					"step %d: conjugate mode %v", i, eigs[1])
				Expect(res.Residuals[i]).To(BeNumerically("<", 1e-10))
			}
		})
	})

	Describe("drifting frequency", func() {
		const (
			omega = 1.0
			rate  = 0.5
			dt    = 0.05
			steps = 80
		)

		var (
			sys   *stream.Drift
			pairs []stream.Pair
		)

		BeforeEach(func() {
			sys = stream.NewDrift(omega, rate, dt)
			var err error
			pairs, err = stream.Generate(sys, x0, steps, 0, 1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("tracks the instantaneous frequency more closely with a shorter window", func() {
			short := track.DefaultConfig()
			short.Window = 6
			short.Dt = dt
			long := track.DefaultConfig()
			long.Window = 20
			long.Dt = dt

			ens := track.NewEnsemble(short, long)
			ens.SetLogger(quiet)
			results, err := ens.Run(ctx, pairs)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			// Estimates recorded at pair index w-1+i; align the two runs on
			// the pair index and score against the frequency driving that pair.
			shortRes, longRes := results[0], results[1]
			var errShort, errLong float64
			for i, eigs := range longRes.Eigs {
				idx := long.Window - 1 + i
				j := idx - (short.Window - 1)
				Expect(j).To(BeNumerically("<", len(shortRes.Eigs)))

				want := sys.OmegaAt(idx)
				errShort += math.Abs(imag(shortRes.Eigs[j][0]) - want)
				errLong += math.Abs(imag(eigs[0]) - want)
			}
			n := float64(len(longRes.Eigs))
			Expect(errShort / n).To(BeNumerically("<", errLong/n))
		})

		It("tracks the newest regime more closely with forgetting", func() {
			slow := track.DefaultConfig()
			slow.Window = 20
			slow.Dt = dt
			fast := slow
			fast.Forgetting = 0.5

			ens := track.NewEnsemble(fast, slow)
			ens.SetLogger(quiet)
			results, err := ens.Run(ctx, pairs)
			Expect(err).NotTo(HaveOccurred())

			fastRes, slowRes := results[0], results[1]
			Expect(fastRes.Eigs).To(HaveLen(len(slowRes.Eigs)))

			want := sys.OmegaAt(steps - 1)
			fastHat := imag(fastRes.Eigs[len(fastRes.Eigs)-1][0])
			slowHat := imag(slowRes.Eigs[len(slowRes.Eigs)-1][0])
			Expect(math.IsNaN(fastHat) || math.IsNaN(slowHat)).To(BeFalse())

			Expect(math.Abs(fastHat - want)).To(BeNumerically("<", 0.1))
			Expect(math.Abs(fastHat - want)).To(BeNumerically("<", math.Abs(slowHat-want)))
			Expect(math.Abs(fastHat - slowHat)).To(BeNumerically(">", 0.05))
		})
	})

	Describe("degenerate windows", func() {
		const dt = 0.05

		var pairs []stream.Pair

		BeforeEach(func() {
			// One full turn per ten samples: the window revisits the same ten
			// points forever, so every update replaces a snapshot with itself.
			omega := 2 * math.Pi / (10 * dt)
			var err error
			pairs, err = stream.Generate(stream.NewRotation(omega, dt), x0, 30, 0, 1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("skips rejected samples and keeps the fit when asked to", func() {
			cfg := track.DefaultConfig()
			cfg.Window = 10
			cfg.Dt = dt
			cfg.CondLimit = 2
			cfg.SkipIllConditioned = true
			tk := track.New(cfg)
			tk.SetLogger(quiet)

			res, err := tk.Run(ctx, stream.NewSliceSource(pairs))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(1))
			Expect(res.Skipped).To(Equal(20))
			Expect(res.Eigs).To(HaveLen(1))
			Expect(res.Final).NotTo(BeNil())
			Expect(imag(res.Eigs[0][0])).To(BeNumerically("~", 2*math.Pi/(10*dt), 1e-8))
		})

		It("stops on the first rejected sample otherwise", func() {
			cfg := track.DefaultConfig()
			cfg.Window = 10
			cfg.Dt = dt
			cfg.CondLimit = 2
			cfg.SkipIllConditioned = false
			tk := track.New(cfg)
			tk.SetLogger(quiet)

			res, err := tk.Run(ctx, stream.NewSliceSource(pairs))
			Expect(err).To(MatchError(sysid.ErrIllConditioned))
			Expect(res).NotTo(BeNil())
			Expect(res.Steps).To(Equal(1))
			Expect(res.Final).NotTo(BeNil())
		})
	})
})
