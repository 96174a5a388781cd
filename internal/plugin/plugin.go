// Package plugin defines the contracts implemented by test runners and
// checkers, and the registry used to construct them by name.
package plugin

import (
	"context"

	m "gooze.dev/pkg/crucible/internal/model"
)

// Resource is anything with a lifecycle managed by the pool and the
// decorators.
type Resource interface {
	Init(ctx context.Context) error
	Dispose(ctx context.Context) error
}

// TestRunner executes a test suite, with or without an active mutant.
type TestRunner interface {
	Resource
	Capabilities(ctx context.Context) (m.Capabilities, error)
	DryRun(ctx context.Context, options m.DryRunOptions) (m.DryRunResult, error)
	MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error)
}

// Checker validates mutants before they are tested, e.g. by compiling them.
type Checker interface {
	Resource
	Check(ctx context.Context, mutants []m.Mutant) (map[string]m.CheckResult, error)
}
