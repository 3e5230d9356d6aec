package track

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/mlowitz/modetrack/internal/modes"
	"github.com/mlowitz/modetrack/internal/stream"
	"github.com/mlowitz/modetrack/internal/sysid"
)

// Tracker drives a sliding-window estimator over a snapshot stream: the
// first Window pairs initialize the fit, every later pair becomes one
// incremental update, and the spectrum of each accepted estimate is
// recorded.
type Tracker struct {
	cfg       Config
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

// New returns a tracker for the given configuration.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg: cfg,
		log: logrus.StandardLogger(),
	}
}

// AddMetric registers a metric reset at the start of every run.
func (tk *Tracker) AddMetric(m Metric) { tk.metrics = append(tk.metrics, m) }

// AddObserver registers a per-step observer.
func (tk *Tracker) AddObserver(o Observer) { tk.observers = append(tk.observers, o) }

// SetLogger replaces the diagnostic logger.
func (tk *Tracker) SetLogger(l logrus.FieldLogger) { tk.log = l }

// Run consumes the source until it is exhausted or ctx is canceled. The
// returned result holds everything recorded up to the point a run stops,
// also when an error is returned alongside it.
func (tk *Tracker) Run(ctx context.Context, src stream.Source) (*Result, error) {
	if err := tk.validate(); err != nil {
		return nil, err
	}
	n := src.Dim()
	if n < 1 {
		return nil, fmt.Errorf("track: source yields no pairs")
	}

	var opts []sysid.Option
	if tk.cfg.Ridge > 0 {
		opts = append(opts, sysid.WithRidge(tk.cfg.Ridge))
	}
	if tk.cfg.CondLimit > 0 {
		opts = append(opts, sysid.WithCondLimit(tk.cfg.CondLimit))
	}
	est, err := sysid.NewWindow(n, tk.cfg.Window, tk.cfg.Forgetting, opts...)
	if err != nil {
		return nil, err
	}

	for _, m := range tk.metrics {
		m.Reset()
	}

	w := tk.cfg.Window
	x0 := mat.NewDense(n, w, nil)
	y0 := mat.NewDense(n, w, nil)
	var last stream.Pair
	for j := 0; j < w; j++ {
		p, ok := src.Next()
		if !ok {
			return nil, fmt.Errorf("track: stream ended after %d pairs, need %d to fit", j, w)
		}
		for i := 0; i < n; i++ {
			x0.Set(i, j, p.X.AtVec(i))
			y0.Set(i, j, p.Y.AtVec(i))
		}
		last = p
	}
	if err := est.Fit(x0, y0); err != nil {
		return nil, fmt.Errorf("track: initial fit: %w", err)
	}

	result := &Result{Metrics: make(map[string]float64)}
	if err := tk.record(result, est, last, w-1); err != nil {
		tk.finish(result, est)
		return result, err
	}

	idx := w
	for {
		select {
		case <-ctx.Done():
			tk.finish(result, est)
			return result, ctx.Err()
		default:
		}

		p, ok := src.Next()
		if !ok {
			break
		}

		if err := est.Update(p.X, p.Y); err != nil {
			if tk.cfg.SkipIllConditioned && errors.Is(err, sysid.ErrIllConditioned) {
				result.Skipped++
				tk.log.WithFields(logrus.Fields{"step": idx, "reason": err}).
					Warn("track: sample skipped")
				idx++
				continue
			}
			tk.finish(result, est)
			return result, fmt.Errorf("track: update at step %d: %w", idx, err)
		}

		if err := tk.record(result, est, p, idx); err != nil {
			tk.finish(result, est)
			return result, err
		}
		idx++
	}

	tk.finish(result, est)
	return result, nil
}

// record appends the current estimate, taken after absorbing pair idx.
func (tk *Tracker) record(result *Result, est *sysid.Window, p stream.Pair, idx int) error {
	op := est.Operator()
	disc, err := modes.Discrete(op)
	if err != nil {
		return fmt.Errorf("track: spectrum at step %d: %w", idx, err)
	}
	cont, err := modes.ToContinuous(disc, tk.cfg.Dt)
	if err != nil {
		return err
	}
	res, err := est.Residual(p.X, p.Y)
	if err != nil {
		return err
	}

	t := tk.cfg.Dt * float64(idx+1)
	result.Steps++
	result.Times = append(result.Times, t)
	result.Eigs = append(result.Eigs, cont)
	result.Residuals = append(result.Residuals, res)

	for _, m := range tk.metrics {
		m.Observe(idx, op, disc, res)
	}
	for _, o := range tk.observers {
		o.OnStep(idx, t, cont, res)
	}
	tk.log.WithFields(logrus.Fields{"step": idx, "residual": res}).
		Debug("track: estimate recorded")
	return nil
}

func (tk *Tracker) finish(result *Result, est *sysid.Window) {
	result.Final = est.Operator()
	for _, m := range tk.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (tk *Tracker) validate() error {
	if tk.cfg.Window < 1 {
		return fmt.Errorf("track: window must hold at least one pair, got %d", tk.cfg.Window)
	}
	if !(tk.cfg.Dt > 0) {
		return fmt.Errorf("track: sampling interval %v, want positive", tk.cfg.Dt)
	}
	return nil
}
