package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gooze.dev/pkg/crucible/internal/childproc"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// MaxRejectedRetries is how often a rejected run is retried on a fresh worker.
const MaxRejectedRetries = 2

const retryExhaustedMessage = "Test runner crashed. Tried twice to restart it without any luck. Last time the error message was: "

// ErrInvalidOptions marks malformed run options. It is never retried.
var ErrInvalidOptions = errors.New("invalid run options")

// RetryRejectedDecorator retries runs that fail with an error on a freshly
// created worker. When every attempt fails the worker is replaced once more and
// an Error result is returned rather than an error; only invalid options and
// context errors are returned as errors.
type RetryRejectedDecorator struct {
	testRunnerDecorator
}

// NewRetryRejectedDecorator wraps the runner produced by factory.
func NewRetryRejectedDecorator(factory func() plugin.TestRunner, opts ...DecoratorOption) *RetryRejectedDecorator {
	return &RetryRejectedDecorator{newTestRunnerDecorator(factory, opts)}
}

// DryRun implements plugin.TestRunner.
func (d *RetryRejectedDecorator) DryRun(ctx context.Context, options m.DryRunOptions) (m.DryRunResult, error) {
	if err := options.Validate(); err != nil {
		return m.DryRunResult{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	var result m.DryRunResult

	err := d.retry(ctx, func() error {
		var err error
		result, err = d.inner.DryRun(ctx, options)

		return err
	})
	if err == nil {
		return result, nil
	}

	var exhausted *retriesExhaustedError
	if errors.As(err, &exhausted) {
		return m.DryRunResult{Status: m.DryRunError, ErrorMessage: exhausted.Error()}, nil
	}

	return m.DryRunResult{}, err
}

// MutantRun implements plugin.TestRunner.
func (d *RetryRejectedDecorator) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	if err := options.Validate(); err != nil {
		return m.MutantRunResult{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	var result m.MutantRunResult

	err := d.retry(ctx, func() error {
		var err error
		result, err = d.inner.MutantRun(ctx, options)

		return err
	})
	if err == nil {
		return result, nil
	}

	var exhausted *retriesExhaustedError
	if errors.As(err, &exhausted) {
		return m.MutantRunResult{Status: m.MutantRunError, ErrorMessage: exhausted.Error()}, nil
	}

	return m.MutantRunResult{}, err
}

func (d *RetryRejectedDecorator) retry(ctx context.Context, run func() error) error {
	var lastErr error

	for attempt := 0; attempt <= MaxRejectedRetries; attempt++ {
		if attempt > 0 {
			if err := d.recoverResource(ctx, "rejected"); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				lastErr = err

				continue
			}
		}

		err := run()
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if errors.Is(err, ErrInvalidOptions) {
			return err
		}

		lastErr = err

		var oom *childproc.OutOfMemoryError
		if errors.As(err, &oom) {
			slog.Warn("Test runner process ran out of memory. You probably have a memory leak in your tests. "+
				"The process is restarted, but you might want to investigate this, because it decreases performance.",
				"pid", oom.PID)
		} else {
			slog.Debug("Test runner call failed", "attempt", attempt+1, "error", err)
		}
	}

	// The last worker failed too. Replace it so the next run starts on a clean process.
	if err := d.recoverResource(ctx, "rejected"); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		slog.Warn("Failed to restart test runner after exhausting retries", "error", err)
	}

	return &retriesExhaustedError{last: lastErr}
}

type retriesExhaustedError struct {
	last error
}

func (e *retriesExhaustedError) Error() string {
	return retryExhaustedMessage + e.last.Error()
}

func (e *retriesExhaustedError) Unwrap() error {
	return e.last
}
