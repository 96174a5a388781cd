package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// GoTestRunnerName is the registry name of the `go test` runner.
const GoTestRunnerName = "gotest"

// GoTestOptions configure the `go test` runner.
type GoTestOptions struct {
	Packages []string `msgpack:"packages" yaml:"packages"`
	Tags     string   `msgpack:"tags,omitempty" yaml:"tags,omitempty"`
	GoBinary string   `msgpack:"goBinary,omitempty" yaml:"goBinary,omitempty"`
}

func (o GoTestOptions) withDefaults() GoTestOptions {
	if len(o.Packages) == 0 {
		o.Packages = []string{"./..."}
	}

	if o.GoBinary == "" {
		o.GoBinary = "go"
	}

	return o
}

// GoTestRunner runs `go test -json` in a sandbox copy of the module. Each
// run is a fresh test binary, so the environment never needs a restart.
type GoTestRunner struct {
	fs         SourceFSAdapter
	workingDir string
	options    GoTestOptions
	log        *slog.Logger

	sandbox *Sandbox
}

// NewGoTestRunner constructs a runner for the module containing workingDir.
func NewGoTestRunner(fs SourceFSAdapter, workingDir string, options GoTestOptions, logger *slog.Logger) *GoTestRunner {
	if logger == nil {
		logger = slog.Default()
	}

	return &GoTestRunner{
		fs:         fs,
		workingDir: workingDir,
		options:    options.withDefaults(),
		log:        logger,
	}
}

// NewGoTestRunnerFactory adapts NewGoTestRunner to the plugin registry.
func NewGoTestRunnerFactory(fs SourceFSAdapter) plugin.TestRunnerFactory {
	return func(ctx plugin.InitContext) (plugin.TestRunner, error) {
		var options GoTestOptions
		if err := ctx.DecodeOptions(&options); err != nil {
			return nil, err
		}

		return NewGoTestRunner(fs, ctx.WorkingDir, options, ctx.Logger), nil
	}
}

// Init creates the sandbox.
func (r *GoTestRunner) Init(ctx context.Context) error {
	sandbox, err := NewSandbox(ctx, r.fs, r.workingDir)
	if err != nil {
		return err
	}

	r.sandbox = sandbox

	return nil
}

// Capabilities implements plugin.TestRunner.
func (r *GoTestRunner) Capabilities(context.Context) (m.Capabilities, error) {
	return m.Capabilities{ReloadEnvironment: true}, nil
}

// DryRun runs the whole suite without a mutant. Coverage is not collected.
func (r *GoTestRunner) DryRun(ctx context.Context, options m.DryRunOptions) (m.DryRunResult, error) {
	if err := r.ready(ctx); err != nil {
		return m.DryRunResult{}, err
	}

	run, timedOut, err := r.goTest(ctx, options.Timeout, nil, options.DisableBail)
	if err != nil {
		return m.DryRunResult{}, err
	}

	switch {
	case timedOut:
		return m.DryRunResult{Status: m.DryRunTimeout, Reason: fmt.Sprintf("go test did not finish within %s", options.Timeout)}, nil
	case run.BuildError != "":
		return m.DryRunResult{Status: m.DryRunError, ErrorMessage: run.BuildError}, nil
	}

	if failed := run.Failed(); len(failed) > 0 || len(run.PackageFailures) > 0 {
		return m.DryRunResult{
			Status:       m.DryRunError,
			Tests:        run.Tests,
			ErrorMessage: fmt.Sprintf("tests fail without any mutant: %s", strings.Join(failed, ", ")),
		}, nil
	}

	return m.DryRunResult{Status: m.DryRunComplete, Tests: run.Tests}, nil
}

// MutantRun applies the active mutant in the sandbox and runs the filtered suite.
func (r *GoTestRunner) MutantRun(ctx context.Context, options m.MutantRunOptions) (m.MutantRunResult, error) {
	if err := r.ready(ctx); err != nil {
		return m.MutantRunResult{}, err
	}

	if err := r.sandbox.Apply(ctx, options.ActiveMutant); err != nil {
		return m.MutantRunResult{}, err
	}

	defer func() {
		if err := r.sandbox.Restore(context.WithoutCancel(ctx)); err != nil {
			r.log.Error("Failed to restore sandbox", "mutant", options.ActiveMutant.ID, "error", err)
		}
	}()

	run, timedOut, err := r.goTest(ctx, options.Timeout, options.TestFilter, options.DisableBail)
	if err != nil {
		return m.MutantRunResult{}, err
	}

	if timedOut {
		return m.MutantRunResult{Status: m.MutantRunTimeout, Reason: fmt.Sprintf("go test did not finish within %s", options.Timeout)}, nil
	}

	if run.BuildError != "" {
		return m.MutantRunResult{Status: m.MutantRunError, ErrorMessage: run.BuildError}, nil
	}

	killedBy := run.Failed()
	if len(killedBy) > 0 || len(run.PackageFailures) > 0 {
		return m.MutantRunResult{
			Status:         m.MutantRunKilled,
			KilledBy:       killedBy,
			FailureMessage: run.FirstFailure(),
			NrOfTests:      run.Executed(),
		}, nil
	}

	return m.MutantRunResult{Status: m.MutantRunSurvived, NrOfTests: run.Executed()}, nil
}

// Dispose removes the sandbox.
func (r *GoTestRunner) Dispose(ctx context.Context) error {
	if r.sandbox == nil {
		return nil
	}

	err := r.sandbox.Remove(ctx)
	r.sandbox = nil

	return err
}

func (r *GoTestRunner) ready(ctx context.Context) error {
	if r.sandbox != nil {
		return nil
	}

	return r.Init(ctx)
}

// goTest runs go test in the sandbox. Exit status is ignored: failures are
// read from the JSON stream.
func (r *GoTestRunner) goTest(ctx context.Context, timeout time.Duration, filter []string, disableBail bool) (testRun, bool, error) {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	args := []string{"test", "-json", "-count=1"}
	if !disableBail {
		args = append(args, "-failfast")
	}

	if r.options.Tags != "" {
		args = append(args, "-tags", r.options.Tags)
	}

	if pattern := runPattern(filter); pattern != "" {
		args = append(args, "-run", pattern)
	}

	args = append(args, r.options.Packages...)

	cmd := exec.CommandContext(runCtx, r.options.GoBinary, args...)
	cmd.Dir = r.sandbox.Dir()
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()

	r.log.Debug("go test finished", "args", args, "duration", time.Since(start), "error", runErr)

	if ctx.Err() != nil {
		return testRun{}, false, ctx.Err()
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return testRun{}, true, nil
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		r.log.Error("Failed to run go test", "dir", cmd.Dir, "error", runErr)
		return testRun{}, false, fmt.Errorf("failed to run go test: %w", runErr)
	}

	run, err := parseTestJSON(&stdout)
	if err != nil {
		return testRun{}, false, err
	}

	if run.BuildError == "" && len(run.Tests) == 0 && runErr != nil && stderr.Len() > 0 {
		run.BuildError = strings.TrimSpace(stderr.String())
	}

	return run, false, nil
}

// runPattern builds an anchored -run expression matching exactly the named tests.
func runPattern(filter []string) string {
	if filter == nil {
		return ""
	}

	// an empty, non-nil filter runs nothing
	if len(filter) == 0 {
		return "^$"
	}

	seen := map[string]struct{}{}
	names := make([]string, 0, len(filter))

	for _, id := range filter {
		name := testName(id)
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}
		names = append(names, regexp.QuoteMeta(name))
	}

	return "^(" + strings.Join(names, "|") + ")$"
}
