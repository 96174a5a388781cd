package domain

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	m "gooze.dev/pkg/crucible/internal/model"
)

// runTimings tracks the distribution of mutant run durations.
type runTimings struct {
	mu     sync.Mutex
	digest *tdigest.TDigest
	runs   int
	max    time.Duration
}

func newRunTimings() *runTimings {
	return &runTimings{digest: tdigest.NewWithCompression(100)}
}

func (r *runTimings) Add(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.digest.Add(float64(d.Nanoseconds()), 1)
	r.runs++

	if d > r.max {
		r.max = d
	}
}

func (r *runTimings) Timing() m.Timing {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runs == 0 {
		return m.Timing{}
	}

	return m.Timing{
		Runs: r.runs,
		P50:  time.Duration(r.digest.Quantile(0.50)),
		P95:  time.Duration(r.digest.Quantile(0.95)),
		Max:  r.max,
	}
}
