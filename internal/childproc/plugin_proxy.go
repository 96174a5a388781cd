package childproc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"gooze.dev/pkg/crucible/internal/ipc"
	"gooze.dev/pkg/crucible/internal/metrics"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// WorkerOptions describe the worker hosting one named plugin.
type WorkerOptions struct {
	Spawner        Spawner
	Spawn          SpawnOptions
	PluginName     string
	PluginOptions  any
	Files          m.FileDescriptions
	WorkingDir     string
	LogLevel       slog.Level
	DisposeTimeout time.Duration
	Logger         *slog.Logger
	Metrics        metrics.Collector
}

func (o WorkerOptions) proxyOptions(kind ipc.PluginKind) (Options, error) {
	var raw msgpack.RawMessage

	if o.PluginOptions != nil {
		b, err := msgpack.Marshal(o.PluginOptions)
		if err != nil {
			return Options{}, fmt.Errorf("failed to encode %s options: %w", o.PluginName, err)
		}

		raw = b
	}

	return Options{
		Spawner: o.Spawner,
		Spawn:   o.Spawn,
		Init: ipc.InitMessage{
			PluginKind: kind,
			PluginName: o.PluginName,
			Logging:    ipc.LoggingContext{Level: int(o.LogLevel)},
			Options:    raw,
			Files:      o.Files,
			WorkingDir: o.WorkingDir,
		},
		DisposeTimeout: o.DisposeTimeout,
		Logger:         o.Logger,
		Metrics:        o.Metrics,
	}, nil
}

func (o WorkerOptions) start(kind ipc.PluginKind) (*ChildProcessProxy, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := o.proxyOptions(kind)
	if err != nil {
		return failed(err, logger), err
	}

	return New(opts)
}

// TestRunnerProxy is a plugin.TestRunner living in a worker process.
type TestRunnerProxy struct {
	proxy *ChildProcessProxy
}

// NewTestRunnerProxy starts a worker hosting a test runner. The returned
// proxy is usable even on error; its calls then fail with that error.
func NewTestRunnerProxy(o WorkerOptions) (*TestRunnerProxy, error) {
	proxy, err := o.start(ipc.PluginTestRunner)
	return &TestRunnerProxy{proxy: proxy}, err
}

// TestRunnerFactory returns a factory suitable for the decorator chain.
func TestRunnerFactory(o WorkerOptions) func() plugin.TestRunner {
	return func() plugin.TestRunner {
		runner, err := NewTestRunnerProxy(o)
		if err != nil {
			slog.Error("Failed to start test runner worker", "plugin", o.PluginName, "error", err)
		}

		return runner
	}
}

// Proxy exposes the underlying process proxy.
func (r *TestRunnerProxy) Proxy() *ChildProcessProxy {
	return r.proxy
}

// Init implements plugin.TestRunner.
func (r *TestRunnerProxy) Init(ctx context.Context) error {
	_, err := r.proxy.Call(ctx, ipc.MethodInit)
	return err
}

// Capabilities implements plugin.TestRunner.
func (r *TestRunnerProxy) Capabilities(ctx context.Context) (m.Capabilities, error) {
	return Invoke[m.Capabilities](ctx, r.proxy, ipc.MethodCapabilities)
}

// DryRun implements plugin.TestRunner.
func (r *TestRunnerProxy) DryRun(ctx context.Context, options m.DryRunOptions) (m.DryRunResult, error) {
	return Invoke[m.DryRunResult](ctx, r.proxy, ipc.MethodDryRun, options)
}

// MutantRun implements plugin.TestRunner.
func (r *TestRunnerProxy) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	return Invoke[m.MutantRunResult](ctx, r.proxy, ipc.MethodMutantRun, options)
}

// Dispose implements plugin.TestRunner. The worker disposes its plugin
// before it confirms.
func (r *TestRunnerProxy) Dispose(ctx context.Context) error {
	return r.proxy.Dispose(ctx)
}

// CheckerProxy is a plugin.Checker living in a worker process.
type CheckerProxy struct {
	proxy *ChildProcessProxy
}

// NewCheckerProxy starts a worker hosting a checker.
func NewCheckerProxy(o WorkerOptions) (*CheckerProxy, error) {
	proxy, err := o.start(ipc.PluginChecker)
	return &CheckerProxy{proxy: proxy}, err
}

// CheckerFactory returns a factory suitable for CheckerRetryDecorator.
func CheckerFactory(o WorkerOptions) func() plugin.Checker {
	return func() plugin.Checker {
		checker, err := NewCheckerProxy(o)
		if err != nil {
			slog.Error("Failed to start checker worker", "plugin", o.PluginName, "error", err)
		}

		return checker
	}
}

// Init implements plugin.Checker.
func (c *CheckerProxy) Init(ctx context.Context) error {
	_, err := c.proxy.Call(ctx, ipc.MethodInit)
	return err
}

// Check implements plugin.Checker.
func (c *CheckerProxy) Check(ctx context.Context, mutants []m.Mutant) (map[string]m.CheckResult, error) {
	return Invoke[map[string]m.CheckResult](ctx, c.proxy, ipc.MethodCheck, mutants)
}

// Dispose implements plugin.Checker.
func (c *CheckerProxy) Dispose(ctx context.Context) error {
	return c.proxy.Dispose(ctx)
}

var (
	_ plugin.TestRunner = (*TestRunnerProxy)(nil)
	_ plugin.Checker    = (*CheckerProxy)(nil)
)
