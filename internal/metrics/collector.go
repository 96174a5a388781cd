// Package metrics records worker process lifecycle and mutant run metrics.
package metrics

import "time"

// Collector receives lifecycle events from the worker engine.
type Collector interface {
	// WorkerSpawned records a new child process for the given plugin kind.
	WorkerSpawned(kind string)

	// WorkerCrashed records an unexpected worker death (crash, oom, init_error, broken_pipe).
	WorkerCrashed(kind, reason string)

	// WorkerRecovered records a dispose-and-recreate cycle triggered by a decorator.
	WorkerRecovered(kind, reason string)

	// CallCompleted records one RPC round trip.
	CallCompleted(kind, method string, duration time.Duration, err error)

	// MutantCompleted records the final verdict of one mutant.
	MutantCompleted(status string, duration time.Duration)
}

type noopCollector struct{}

func (noopCollector) WorkerSpawned(string)                               {}
func (noopCollector) WorkerCrashed(string, string)                       {}
func (noopCollector) WorkerRecovered(string, string)                     {}
func (noopCollector) CallCompleted(string, string, time.Duration, error) {}
func (noopCollector) MutantCompleted(string, time.Duration)              {}

// NewNoopCollector returns a collector that drops everything.
func NewNoopCollector() Collector {
	return noopCollector{}
}

// OrNoop returns c, or a no-op collector when c is nil.
func OrNoop(c Collector) Collector {
	if c == nil {
		return NewNoopCollector()
	}

	return c
}
