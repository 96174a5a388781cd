package adapter

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/crucible/internal/model"
)

// These tests run the real toolchain against examples/boolean.

var booleanExample = filepath.Join("..", "..", "examples", "boolean")

// `return active && !disabled` on line 23 of examples/boolean/main.go
var (
	orMutant = m.Mutant{
		ID:          "and-to-or",
		FileName:    "main.go",
		Location:    m.Location{Start: m.Position{Line: 23, Column: 15}, End: m.Position{Line: 23, Column: 17}},
		Replacement: "||",
		MutatorName: "LogicalOperator",
	}
	trueMutant = m.Mutant{
		ID:          "not-to-true",
		FileName:    "main.go",
		Location:    m.Location{Start: m.Position{Line: 23, Column: 18}, End: m.Position{Line: 23, Column: 27}},
		Replacement: "true",
		MutatorName: "BooleanLiteral",
	}
	brokenMutant = m.Mutant{
		ID:          "broken",
		FileName:    "main.go",
		Location:    m.Location{Start: m.Position{Line: 23, Column: 15}, End: m.Position{Line: 23, Column: 17}},
		Replacement: "&&&",
		MutatorName: "Broken",
	}
)

func requireGo(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("runs the go toolchain")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not in PATH")
	}
}

func newBooleanRunner(t *testing.T) *GoTestRunner {
	t.Helper()
	requireGo(t)

	runner := NewGoTestRunner(NewLocalSourceFSAdapter(), booleanExample, GoTestOptions{}, nil)
	require.NoError(t, runner.Init(context.Background()))

	t.Cleanup(func() { _ = runner.Dispose(context.Background()) })

	return runner
}

func TestGoTestRunner_DryRun(t *testing.T) {
	runner := newBooleanRunner(t)

	result, err := runner.DryRun(context.Background(), m.DryRunOptions{Timeout: 2 * time.Minute})
	require.NoError(t, err)
	require.Equal(t, m.DryRunComplete, result.Status, result.ErrorMessage)

	var names []string
	for _, test := range result.Tests {
		names = append(names, test.Name)
		assert.Equal(t, m.TestSuccess, test.Status)
	}

	assert.Contains(t, names, "TestCheckStatus")
}

func TestGoTestRunner_MutantRun(t *testing.T) {
	runner := newBooleanRunner(t)
	ctx := context.Background()

	killed, err := runner.MutantRun(ctx, m.MutantRunOptions{ActiveMutant: orMutant, Timeout: 2 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, m.MutantRunKilled, killed.Status)
	assert.Equal(t, []string{"example.com/boolean.TestCheckStatus"}, killed.KilledBy)
	assert.Contains(t, killed.FailureMessage, "expected false, got true")

	survived, err := runner.MutantRun(ctx, m.MutantRunOptions{ActiveMutant: trueMutant, Timeout: 2 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, m.MutantRunSurvived, survived.Status)
	assert.Positive(t, survived.NrOfTests)

	broken, err := runner.MutantRun(ctx, m.MutantRunOptions{ActiveMutant: brokenMutant, Timeout: 2 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, m.MutantRunError, broken.Status)
	assert.NotEmpty(t, broken.ErrorMessage)

	// a filter that excludes the killing test lets the mutant survive
	filtered, err := runner.MutantRun(ctx, m.MutantRunOptions{
		ActiveMutant: orMutant,
		Timeout:      2 * time.Minute,
		TestFilter:   []string{"example.com/boolean.TestMain"},
	})
	require.NoError(t, err)
	assert.Equal(t, m.MutantRunSurvived, filtered.Status)
}

func TestGoBuildChecker(t *testing.T) {
	requireGo(t)

	checker := NewGoBuildChecker(NewLocalSourceFSAdapter(), booleanExample, GoBuildOptions{}, nil)
	ctx := context.Background()

	require.NoError(t, checker.Init(ctx))
	t.Cleanup(func() { _ = checker.Dispose(ctx) })

	results, err := checker.Check(ctx, []m.Mutant{orMutant, brokenMutant})
	require.NoError(t, err)
	assert.Equal(t, m.CheckPassed, results[orMutant.ID].Status)
	assert.Equal(t, m.CheckCompileError, results[brokenMutant.ID].Status)
	assert.NotEmpty(t, results[brokenMutant.ID].Reason)
}

func TestRunPattern(t *testing.T) {
	tests := []struct {
		name   string
		filter []string
		want   string
	}{
		{name: "nil runs everything", filter: nil, want: ""},
		{name: "empty runs nothing", filter: []string{}, want: "^$"},
		{name: "deduplicated names", filter: []string{"a.TestX", "b.TestX", "a.TestY"}, want: "^(TestX|TestY)$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runPattern(tt.filter))
		})
	}
}
