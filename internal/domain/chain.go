package domain

import (
	"time"

	"gooze.dev/pkg/crucible/internal/plugin"
)

// ChainOptions tune the test runner decorator chain.
type ChainOptions struct {
	MaxTestRunnerReuse int
	TimeoutGrace       time.Duration
	Decorators         []DecoratorOption
}

// NewTestRunnerChain wraps workers produced by factory in the full policy
// chain, outermost first: retry rejected, retry empty result, reload
// environment, max reuse, timeout. Each layer's recover rebuilds everything
// below it.
func NewTestRunnerChain(factory func() plugin.TestRunner, opts ChainOptions) plugin.TestRunner {
	timeout := func() plugin.TestRunner {
		return NewTimeoutDecorator(factory, opts.TimeoutGrace, opts.Decorators...)
	}

	maxReuse := func() plugin.TestRunner {
		return NewMaxReuseDecorator(timeout, opts.MaxTestRunnerReuse, opts.Decorators...)
	}

	reload := func() plugin.TestRunner {
		return NewReloadEnvironmentDecorator(maxReuse, opts.Decorators...)
	}

	emptyResult := func() plugin.TestRunner {
		return NewRetryEmptyResultDecorator(reload, opts.Decorators...)
	}

	return NewRetryRejectedDecorator(emptyResult, opts.Decorators...)
}

// NewCheckerChain wraps checkers produced by factory in the crash retry policy.
func NewCheckerChain(factory func() plugin.Checker, opts ...DecoratorOption) plugin.Checker {
	return NewCheckerRetryDecorator(factory, opts...)
}
