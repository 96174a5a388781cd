package domain

import (
	"context"
	"log/slog"

	"gooze.dev/pkg/crucible/internal/childproc"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// CheckerRetryDecorator restarts a crashed checker and retries the check once.
// Errors other than a crash are returned unchanged.
type CheckerRetryDecorator struct {
	resourceDecorator[plugin.Checker]
}

// NewCheckerRetryDecorator wraps the checker produced by factory.
func NewCheckerRetryDecorator(factory func() plugin.Checker, opts ...DecoratorOption) *CheckerRetryDecorator {
	return &CheckerRetryDecorator{newResourceDecorator("Checker", factory, opts)}
}

// Check implements plugin.Checker.
func (d *CheckerRetryDecorator) Check(ctx context.Context, mutants []m.Mutant) (map[string]m.CheckResult, error) {
	result, err := d.inner.Check(ctx, mutants)
	if err == nil || !childproc.IsCrashed(err) {
		return result, err
	}

	slog.Warn("Checker process crashed, restarting it", "mutants", len(mutants), "error", err)

	if err := d.recoverResource(ctx, "crashed"); err != nil {
		return nil, err
	}

	return d.inner.Check(ctx, mutants)
}
