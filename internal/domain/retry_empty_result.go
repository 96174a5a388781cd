package domain

import (
	"context"
	"fmt"
	"log/slog"

	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// MaxEmptyResultRetries bounds the retries of a survived run that executed no tests.
const MaxEmptyResultRetries = 2

// RetryEmptyResultDecorator distrusts a Survived result with zero tests and
// reruns it on a fresh worker.
type RetryEmptyResultDecorator struct {
	testRunnerDecorator
}

// NewRetryEmptyResultDecorator wraps the runner produced by factory.
func NewRetryEmptyResultDecorator(factory func() plugin.TestRunner, opts ...DecoratorOption) *RetryEmptyResultDecorator {
	return &RetryEmptyResultDecorator{newTestRunnerDecorator(factory, opts)}
}

// MutantRun implements plugin.TestRunner.
func (d *RetryEmptyResultDecorator) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	result, err := d.inner.MutantRun(ctx, options)

	for retries := 0; err == nil && isEmptyResult(result); retries++ {
		if retries == MaxEmptyResultRetries {
			return m.MutantRunResult{
				Status:       m.MutantRunError,
				ErrorMessage: fmt.Sprintf("Tried %d test runs, but both failed to run actual tests", MaxEmptyResultRetries),
			}, nil
		}

		slog.Debug("Mutant run executed no tests, retrying on a fresh worker", "mutant", options.ActiveMutant.ID)

		if err := d.recoverResource(ctx, "empty_result"); err != nil {
			return m.MutantRunResult{}, err
		}

		result, err = d.inner.MutantRun(ctx, options)
	}

	return result, err
}

func isEmptyResult(result m.MutantRunResult) bool {
	return result.Status == m.MutantRunSurvived && result.NrOfTests == 0
}
