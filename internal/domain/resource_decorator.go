package domain

import (
	"context"
	"log/slog"

	"gooze.dev/pkg/crucible/internal/metrics"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// DecoratorOption configures a decorator.
type DecoratorOption func(*decoratorConfig)

type decoratorConfig struct {
	metrics metrics.Collector
}

// WithMetrics reports recover cycles to c.
func WithMetrics(c metrics.Collector) DecoratorOption {
	return func(cfg *decoratorConfig) {
		cfg.metrics = c
	}
}

func newDecoratorConfig(opts []DecoratorOption) decoratorConfig {
	cfg := decoratorConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	cfg.metrics = metrics.OrNoop(cfg.metrics)

	return cfg
}

// resourceDecorator holds the current inner resource and replaces it on recover.
type resourceDecorator[R plugin.Resource] struct {
	kind    string
	factory func() R
	inner   R
	metrics metrics.Collector
}

func newResourceDecorator[R plugin.Resource](kind string, factory func() R, opts []DecoratorOption) resourceDecorator[R] {
	cfg := newDecoratorConfig(opts)

	return resourceDecorator[R]{
		kind:    kind,
		factory: factory,
		inner:   factory(),
		metrics: cfg.metrics,
	}
}

func (d *resourceDecorator[R]) Init(ctx context.Context) error {
	return d.inner.Init(ctx)
}

func (d *resourceDecorator[R]) Dispose(ctx context.Context) error {
	return d.inner.Dispose(ctx)
}

// recoverResource disposes the current inner resource, then creates and initialises
// a new one. The old resource is always disposed before the new one is created.
func (d *resourceDecorator[R]) recoverResource(ctx context.Context, reason string) error {
	if err := d.inner.Dispose(ctx); err != nil {
		slog.Debug("Failed to dispose resource during recover", "kind", d.kind, "reason", reason, "error", err)
	}

	d.metrics.WorkerRecovered(d.kind, reason)

	d.inner = d.factory()

	return d.inner.Init(ctx)
}

// testRunnerDecorator forwards every call to the inner test runner.
type testRunnerDecorator struct {
	resourceDecorator[plugin.TestRunner]
}

func newTestRunnerDecorator(factory func() plugin.TestRunner, opts []DecoratorOption) testRunnerDecorator {
	return testRunnerDecorator{newResourceDecorator("TestRunner", factory, opts)}
}

func (d *testRunnerDecorator) Capabilities(ctx context.Context) (m.Capabilities, error) {
	return d.inner.Capabilities(ctx)
}

func (d *testRunnerDecorator) DryRun(ctx context.Context, options m.DryRunOptions) (m.DryRunResult, error) {
	return d.inner.DryRun(ctx, options)
}

func (d *testRunnerDecorator) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	return d.inner.MutantRun(ctx, options)
}
