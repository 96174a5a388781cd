package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// DefaultTimeoutGrace is added to a run's own timeout before the worker is
// considered hung.
const DefaultTimeoutGrace = 10 * time.Second

// TimeoutDecorator enforces a hard deadline on every run. A run that misses
// it is reported as a timeout and the worker is replaced, since it may still
// be busy with the abandoned run. A Timeout result reported by the runner
// itself also replaces the worker.
type TimeoutDecorator struct {
	testRunnerDecorator

	grace time.Duration
}

// NewTimeoutDecorator wraps the runner produced by factory.
func NewTimeoutDecorator(factory func() plugin.TestRunner, grace time.Duration, opts ...DecoratorOption) *TimeoutDecorator {
	if grace <= 0 {
		grace = DefaultTimeoutGrace
	}

	return &TimeoutDecorator{testRunnerDecorator: newTestRunnerDecorator(factory, opts), grace: grace}
}

// DryRun implements plugin.TestRunner.
func (d *TimeoutDecorator) DryRun(ctx context.Context, options m.DryRunOptions) (m.DryRunResult, error) {
	runCtx, cancel := d.deadline(ctx, options.Timeout)
	defer cancel()

	result, err := d.inner.DryRun(runCtx, options)

	expired := d.expired(ctx, runCtx, err)
	if expired || (err == nil && result.Status == m.DryRunTimeout) {
		slog.Debug("Dry run timed out, restarting the worker", "timeout", options.Timeout)

		if rerr := d.recoverResource(ctx, "timeout"); rerr != nil {
			return m.DryRunResult{}, rerr
		}

		if expired {
			return m.DryRunResult{Status: m.DryRunTimeout, Reason: "worker did not answer in time"}, nil
		}
	}

	return result, err
}

// MutantRun implements plugin.TestRunner.
func (d *TimeoutDecorator) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	runCtx, cancel := d.deadline(ctx, options.Timeout)
	defer cancel()

	result, err := d.inner.MutantRun(runCtx, options)

	expired := d.expired(ctx, runCtx, err)
	if expired || (err == nil && result.Status == m.MutantRunTimeout) {
		slog.Debug("Mutant run timed out, restarting the worker", "mutant", options.ActiveMutant.ID, "timeout", options.Timeout)

		if rerr := d.recoverResource(ctx, "timeout"); rerr != nil {
			return m.MutantRunResult{}, rerr
		}

		if expired {
			return m.MutantRunResult{Status: m.MutantRunTimeout, Reason: "worker did not answer in time"}, nil
		}
	}

	return result, err
}

func (d *TimeoutDecorator) deadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout+d.grace)
}

// expired is true when the run deadline fired but the caller's context is still live.
func (d *TimeoutDecorator) expired(parent, run context.Context, err error) bool {
	return err != nil && parent.Err() == nil && errors.Is(run.Err(), context.DeadlineExceeded)
}
