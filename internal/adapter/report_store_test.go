package adapter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/crucible/internal/model"
)

func TestYAMLStore_Report(t *testing.T) {
	store := NewYAMLStore()
	path := m.Path(filepath.Join(t.TempDir(), "reports", "report.yaml"))

	report := m.Report{
		StartedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
		Duration:  3 * time.Second,
		Score:     m.Score{Killed: 1, Survived: 1, Total: 2, Value: 50},
		Results: []m.MutantResult{
			{Mutant: orMutant, Status: m.StatusKilled, KilledBy: []string{"example.com/boolean.TestCheckStatus"}, TestsCompleted: 1},
			{Mutant: trueMutant, Status: m.StatusSurvived, TestsCompleted: 2, Duration: 150 * time.Millisecond},
		},
	}

	require.NoError(t, store.SaveReport(path, report))

	loaded, err := store.LoadReport(path)
	require.NoError(t, err)

	report.Version = ReportVersion
	assert.Equal(t, report, loaded)
}

func TestYAMLStore_LoadMutants(t *testing.T) {
	store := NewYAMLStore()
	dir := t.TempDir()

	t.Run("ids default to position", func(t *testing.T) {
		path := filepath.Join(dir, "mutants.yaml")
		writeTestFile(t, path, `mutants:
  - fileName: main.go
    location: {start: {line: 23, column: 15}, end: {line: 23, column: 17}}
    replacement: "||"
    mutatorName: LogicalOperator
  - id: custom
    fileName: main.go
    range: [10, 12]
    replacement: "true"
    static: true
`)

		mutants, err := store.LoadMutants(m.Path(path))
		require.NoError(t, err)
		require.Len(t, mutants, 2)
		assert.Equal(t, "0", mutants[0].ID)
		assert.Equal(t, m.Position{Line: 23, Column: 15}, mutants[0].Location.Start)
		assert.Equal(t, "custom", mutants[1].ID)
		require.NotNil(t, mutants[1].Range)
		assert.Equal(t, [2]int{10, 12}, *mutants[1].Range)
		assert.True(t, mutants[1].Static)
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		path := filepath.Join(dir, "dup.yaml")
		writeTestFile(t, path, "mutants:\n  - {id: a, fileName: x.go}\n  - {id: a, fileName: y.go}\n")

		_, err := store.LoadMutants(m.Path(path))
		require.ErrorContains(t, err, "duplicate mutant id")
	})

	t.Run("file name is required", func(t *testing.T) {
		path := filepath.Join(dir, "nofile.yaml")
		writeTestFile(t, path, "mutants:\n  - {id: a}\n")

		_, err := store.LoadMutants(m.Path(path))
		require.ErrorContains(t, err, "no fileName")
	})
}
