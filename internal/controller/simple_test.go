package controller

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/crucible/internal/model"
)

func newTestSimpleUI() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func TestSimpleUI_DisplayEstimation(t *testing.T) {
	ui, buf := newTestSimpleUI()

	mutants := []m.Mutant{
		{ID: "1", FileName: "b.go"},
		{ID: "2", FileName: "a.go", Static: true},
		{ID: "3", FileName: "a.go"},
	}

	require.NoError(t, ui.DisplayEstimation(context.Background(), mutants, nil))

	out := buf.String()
	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "b.go")
	assert.Contains(t, out, "TOTAL FILES 2")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("a.go")), bytes.Index(buf.Bytes(), []byte("b.go")))
}

func TestSimpleUI_DisplayEstimationError(t *testing.T) {
	ui, buf := newTestSimpleUI()

	err := ui.DisplayEstimation(context.Background(), nil, errors.New("bad plan"))

	require.EqualError(t, err, "bad plan")
	assert.Contains(t, buf.String(), "estimation error: bad plan")
}

func TestSimpleUI_CanceledContextPrintsNothing(t *testing.T) {
	ui, buf := newTestSimpleUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ui.DisplayUpcomingTestsInfo(ctx, 3)
	ui.DisplayMutationScore(ctx, m.Score{}, m.Timing{})

	assert.Empty(t, buf.String())
	assert.ErrorIs(t, ui.Start(ctx), context.Canceled)
}

func TestSimpleUI_DisplayCompletedTestInfo(t *testing.T) {
	dir := t.TempDir()
	src := "package flag\n\nfunc On() bool { return true }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flag.go"), []byte(src), 0o600))

	mutant := m.Mutant{
		ID:          "7",
		FileName:    "flag.go",
		MutatorName: "BooleanLiteral",
		Location:    m.Location{Start: m.Position{Line: 3, Column: 24}, End: m.Position{Line: 3, Column: 28}},
		Replacement: "false",
	}

	t.Run("survivor shows diff", func(t *testing.T) {
		ui, buf := newTestSimpleUI()
		require.NoError(t, ui.Start(context.Background(), WithTestMode(), WithSourceRoot(dir)))

		ui.DisplayCompletedTestInfo(context.Background(), m.MutantResult{Mutant: mutant, Status: m.StatusSurvived})

		out := buf.String()
		assert.Contains(t, out, "Completed mutant 7 (BooleanLiteral) -> Survived")
		assert.Contains(t, out, "-func On() bool { return true }")
		assert.Contains(t, out, "+func On() bool { return false }")
	})

	t.Run("killed has no diff", func(t *testing.T) {
		ui, buf := newTestSimpleUI()
		require.NoError(t, ui.Start(context.Background(), WithSourceRoot(dir)))

		ui.DisplayCompletedTestInfo(context.Background(), m.MutantResult{Mutant: mutant, Status: m.StatusKilled})

		assert.NotContains(t, buf.String(), "+func")
	})

	t.Run("missing file still reports status", func(t *testing.T) {
		ui, buf := newTestSimpleUI()
		require.NoError(t, ui.Start(context.Background(), WithSourceRoot(t.TempDir())))

		ui.DisplayCompletedTestInfo(context.Background(), m.MutantResult{Mutant: mutant, Status: m.StatusNoCoverage, StatusReason: "no tests"})

		assert.Contains(t, buf.String(), "-> NoCoverage")
		assert.Contains(t, buf.String(), "Reason: no tests")
	})
}

func TestSimpleUI_DisplayMutationScore(t *testing.T) {
	ui, buf := newTestSimpleUI()

	ui.DisplayMutationScore(context.Background(),
		m.Score{Killed: 3, Survived: 1, Total: 4, Value: 75},
		m.Timing{Runs: 4})

	out := buf.String()
	assert.Contains(t, out, "Mutation score: 75.00%")
	assert.Contains(t, out, "Mutant runs: 4")
	assert.Contains(t, out, "Killed")
}

func TestSimpleUI_DisplayDryRunInfo(t *testing.T) {
	ui, buf := newTestSimpleUI()

	ui.DisplayDryRunInfo(context.Background(), m.DryRunResult{Status: m.DryRunError, ErrorMessage: "build failed"})

	assert.Contains(t, buf.String(), "Initial test run: Error (0 tests)")
	assert.Contains(t, buf.String(), "build failed")
}
