package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// GoBuildCheckerName is the registry name of the compile checker.
const GoBuildCheckerName = "gobuild"

// GoBuildOptions configure the compile checker.
type GoBuildOptions struct {
	Packages []string `msgpack:"packages" yaml:"packages"`
	Tags     string   `msgpack:"tags,omitempty" yaml:"tags,omitempty"`
	GoBinary string   `msgpack:"goBinary,omitempty" yaml:"goBinary,omitempty"`
}

// GoBuildChecker rejects mutants that do not compile. It compiles the test
// binaries without running a test, so test files are type checked too.
type GoBuildChecker struct {
	fs         SourceFSAdapter
	workingDir string
	options    GoTestOptions
	log        *slog.Logger

	sandbox *Sandbox
}

// NewGoBuildChecker constructs a checker for the module containing workingDir.
func NewGoBuildChecker(fs SourceFSAdapter, workingDir string, options GoBuildOptions, logger *slog.Logger) *GoBuildChecker {
	if logger == nil {
		logger = slog.Default()
	}

	return &GoBuildChecker{
		fs:         fs,
		workingDir: workingDir,
		options:    GoTestOptions(options).withDefaults(),
		log:        logger,
	}
}

// NewGoBuildCheckerFactory adapts NewGoBuildChecker to the plugin registry.
func NewGoBuildCheckerFactory(fs SourceFSAdapter) plugin.CheckerFactory {
	return func(ctx plugin.InitContext) (plugin.Checker, error) {
		var options GoBuildOptions
		if err := ctx.DecodeOptions(&options); err != nil {
			return nil, err
		}

		return NewGoBuildChecker(fs, ctx.WorkingDir, options, ctx.Logger), nil
	}
}

// Init creates the sandbox.
func (c *GoBuildChecker) Init(ctx context.Context) error {
	sandbox, err := NewSandbox(ctx, c.fs, c.workingDir)
	if err != nil {
		return err
	}

	c.sandbox = sandbox

	return nil
}

// Check compiles every mutant in turn.
func (c *GoBuildChecker) Check(ctx context.Context, mutants []m.Mutant) (map[string]m.CheckResult, error) {
	if c.sandbox == nil {
		if err := c.Init(ctx); err != nil {
			return nil, err
		}
	}

	results := make(map[string]m.CheckResult, len(mutants))

	for _, mt := range mutants {
		result, err := c.check(ctx, mt)
		if err != nil {
			return nil, err
		}

		results[mt.ID] = result
	}

	return results, nil
}

func (c *GoBuildChecker) check(ctx context.Context, mt m.Mutant) (m.CheckResult, error) {
	if err := c.sandbox.Apply(ctx, mt); err != nil {
		return m.CheckResult{Status: m.CheckCompileError, Reason: err.Error()}, nil
	}

	defer func() {
		if err := c.sandbox.Restore(context.WithoutCancel(ctx)); err != nil {
			c.log.Error("Failed to restore sandbox", "mutant", mt.ID, "error", err)
		}
	}()

	args := []string{"test", "-vet=off", "-count=1", "-run", "^$"}
	if c.options.Tags != "" {
		args = append(args, "-tags", c.options.Tags)
	}

	args = append(args, c.options.Packages...)

	cmd := exec.CommandContext(ctx, c.options.GoBinary, args...)
	cmd.Dir = c.sandbox.Dir()

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() != nil {
		return m.CheckResult{}, ctx.Err()
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return m.CheckResult{}, fmt.Errorf("failed to compile mutant: %w", err)
		}

		reason := strings.TrimSpace(out.String())
		c.log.Debug("Mutant does not compile", "mutant", mt.ID, "reason", reason)

		return m.CheckResult{Status: m.CheckCompileError, Reason: reason}, nil
	}

	return m.CheckResult{Status: m.CheckPassed}, nil
}

// Dispose removes the sandbox.
func (c *GoBuildChecker) Dispose(ctx context.Context) error {
	if c.sandbox == nil {
		return nil
	}

	err := c.sandbox.Remove(ctx)
	c.sandbox = nil

	return err
}
