package track

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mlowitz/modetrack/internal/stream"
)

// Ensemble replays one recorded stream through several tracker
// configurations concurrently, typically to compare window lengths or
// forgetting factors on the same data.
type Ensemble struct {
	cfgs []Config
	log  logrus.FieldLogger
}

func NewEnsemble(cfgs ...Config) *Ensemble {
	return &Ensemble{cfgs: cfgs, log: logrus.StandardLogger()}
}

// SetLogger replaces the logger handed to every tracker in the ensemble.
func (e *Ensemble) SetLogger(l logrus.FieldLogger) { e.log = l }

// Run replays pairs through each configuration. The slice is shared
// read-only across goroutines; every run gets its own cursor. Results
// are indexed like the configurations, and the first error wins.
func (e *Ensemble) Run(ctx context.Context, pairs []stream.Pair) ([]*Result, error) {
	results := make([]*Result, len(e.cfgs))
	errs := make([]error, len(e.cfgs))

	var wg sync.WaitGroup
	for i := range e.cfgs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			tk := New(e.cfgs[idx])
			tk.SetLogger(e.log)
			results[idx], errs[idx] = tk.Run(ctx, stream.NewSliceSource(pairs))
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
