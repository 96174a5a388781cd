package worker

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"gooze.dev/pkg/crucible/internal/ipc"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
)

// Service maps call messages onto one hosted plugin.
type Service interface {
	Handle(ctx context.Context, method string, args []msgpack.RawMessage) (any, error)
	Dispose(ctx context.Context) error
}

// TestRunnerService serves a plugin.TestRunner.
type TestRunnerService struct {
	runner plugin.TestRunner
}

// NewTestRunnerService wraps runner.
func NewTestRunnerService(runner plugin.TestRunner) *TestRunnerService {
	return &TestRunnerService{runner: runner}
}

// Handle implements Service.
func (s *TestRunnerService) Handle(ctx context.Context, method string, args []msgpack.RawMessage) (any, error) {
	switch method {
	case ipc.MethodInit:
		return nil, s.runner.Init(ctx)
	case ipc.MethodCapabilities:
		return s.runner.Capabilities(ctx)
	case ipc.MethodDryRun:
		var options m.DryRunOptions
		if err := decodeArg(method, args, 0, &options); err != nil {
			return nil, err
		}

		return s.runner.DryRun(ctx, options)
	case ipc.MethodMutantRun:
		var options m.MutantRunOptions
		if err := decodeArg(method, args, 0, &options); err != nil {
			return nil, err
		}

		return s.runner.MutantRun(ctx, options)
	case ipc.MethodDispose:
		return nil, s.runner.Dispose(ctx)
	default:
		return nil, fmt.Errorf("test runner has no method %q", method)
	}
}

// Dispose implements Service.
func (s *TestRunnerService) Dispose(ctx context.Context) error {
	return s.runner.Dispose(ctx)
}

// CheckerService serves a plugin.Checker.
type CheckerService struct {
	checker plugin.Checker
}

// NewCheckerService wraps checker.
func NewCheckerService(checker plugin.Checker) *CheckerService {
	return &CheckerService{checker: checker}
}

// Handle implements Service.
func (s *CheckerService) Handle(ctx context.Context, method string, args []msgpack.RawMessage) (any, error) {
	switch method {
	case ipc.MethodInit:
		return nil, s.checker.Init(ctx)
	case ipc.MethodCheck:
		var mutants []m.Mutant
		if err := decodeArg(method, args, 0, &mutants); err != nil {
			return nil, err
		}

		return s.checker.Check(ctx, mutants)
	case ipc.MethodDispose:
		return nil, s.checker.Dispose(ctx)
	default:
		return nil, fmt.Errorf("checker has no method %q", method)
	}
}

// Dispose implements Service.
func (s *CheckerService) Dispose(ctx context.Context) error {
	return s.checker.Dispose(ctx)
}

func decodeArg(method string, args []msgpack.RawMessage, i int, v any) error {
	if i >= len(args) {
		return fmt.Errorf("%s: missing argument %d", method, i)
	}

	if err := msgpack.Unmarshal(args[i], v); err != nil {
		return fmt.Errorf("%s: failed to decode argument %d: %w", method, i, err)
	}

	return nil
}
