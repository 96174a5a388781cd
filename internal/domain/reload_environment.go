package domain

import (
	"context"

	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

type testEnvironment int

const (
	envPristine testEnvironment = iota
	envLoaded
	envLoadedStaticMutant
)

// ReloadEnvironmentDecorator keeps static mutants from leaking into later runs.
//
// A static mutant changes code that only runs at load time, so the process
// keeps its effect until the environment is reloaded. Runs that ask for
// ReloadEnvironment are treated as static. The decorator asks the runner once
// whether it can reload by itself and otherwise starts a fresh worker.
type ReloadEnvironmentDecorator struct {
	testRunnerDecorator

	env          testEnvironment
	capabilities *m.Capabilities
}

// NewReloadEnvironmentDecorator wraps the runner produced by factory.
func NewReloadEnvironmentDecorator(factory func() plugin.TestRunner, opts ...DecoratorOption) *ReloadEnvironmentDecorator {
	return &ReloadEnvironmentDecorator{testRunnerDecorator: newTestRunnerDecorator(factory, opts)}
}

// Capabilities implements plugin.TestRunner. The answer is cached.
func (d *ReloadEnvironmentDecorator) Capabilities(ctx context.Context) (m.Capabilities, error) {
	if d.capabilities != nil {
		return *d.capabilities, nil
	}

	caps, err := d.inner.Capabilities(ctx)
	if err != nil {
		return m.Capabilities{}, err
	}

	d.capabilities = &caps

	return caps, nil
}

// DryRun implements plugin.TestRunner.
func (d *ReloadEnvironmentDecorator) DryRun(ctx context.Context, options m.DryRunOptions) (m.DryRunResult, error) {
	d.env = envLoaded
	return d.inner.DryRun(ctx, options)
}

// MutantRun implements plugin.TestRunner.
func (d *ReloadEnvironmentDecorator) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	var next testEnvironment

	if options.ReloadEnvironment {
		next = envLoadedStaticMutant

		// A pristine environment has nothing to reload.
		options.ReloadEnvironment = d.env != envPristine

		if options.ReloadEnvironment {
			capable, err := d.canReload(ctx)
			if err != nil {
				return m.MutantRunResult{}, err
			}

			if !capable {
				if err := d.recoverEnvironment(ctx); err != nil {
					return m.MutantRunResult{}, err
				}

				options.ReloadEnvironment = false
			}
		}
	} else {
		next = envLoaded

		if d.env == envLoadedStaticMutant {
			capable, err := d.canReload(ctx)
			if err != nil {
				return m.MutantRunResult{}, err
			}

			if capable {
				options.ReloadEnvironment = true
			} else if err := d.recoverEnvironment(ctx); err != nil {
				return m.MutantRunResult{}, err
			}
		}
	}

	result, err := d.inner.MutantRun(ctx, options)
	d.env = next

	return result, err
}

func (d *ReloadEnvironmentDecorator) canReload(ctx context.Context) (bool, error) {
	caps, err := d.Capabilities(ctx)
	if err != nil {
		return false, err
	}

	return caps.ReloadEnvironment, nil
}

func (d *ReloadEnvironmentDecorator) recoverEnvironment(ctx context.Context) error {
	d.env = envPristine
	return d.recoverResource(ctx, "reload_environment")
}
