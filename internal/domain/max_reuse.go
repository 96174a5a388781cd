package domain

import (
	"context"

	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// MaxReuseDecorator replaces the worker after a fixed number of mutant runs.
// A threshold of zero reuses the worker forever.
type MaxReuseDecorator struct {
	testRunnerDecorator

	threshold int
	runs      int
}

// NewMaxReuseDecorator wraps the runner produced by factory.
func NewMaxReuseDecorator(factory func() plugin.TestRunner, threshold int, opts ...DecoratorOption) *MaxReuseDecorator {
	return &MaxReuseDecorator{
		testRunnerDecorator: newTestRunnerDecorator(factory, opts),
		threshold:           threshold,
	}
}

// MutantRun implements plugin.TestRunner.
func (d *MaxReuseDecorator) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	d.runs++

	if d.threshold > 0 && d.runs > d.threshold {
		if err := d.recoverResource(ctx, "max_reuse"); err != nil {
			return m.MutantRunResult{}, err
		}

		d.runs = 1
	}

	return d.inner.MutantRun(ctx, options)
}

// Dispose implements plugin.TestRunner.
func (d *MaxReuseDecorator) Dispose(ctx context.Context) error {
	d.runs = 0
	return d.inner.Dispose(ctx)
}
