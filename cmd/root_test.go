package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/crucible/internal/childproc"
)

// newTestRootCmd builds a root command around sub that logs into a temp dir.
func newTestRootCmd(t *testing.T, sub *cobra.Command) (*cobra.Command, []string) {
	t.Helper()

	cmd := newRootCmd()
	configureRootFlags(cmd)
	cmd.AddCommand(sub)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return cmd, []string{"--log-file", filepath.Join(t.TempDir(), "crucible.log")}
}

func TestParseShardFlag(t *testing.T) {
	tests := []struct {
		name      string
		shard     string
		wantIndex int
		wantTotal int
	}{
		{"empty string", "", 0, 1},
		{"valid 0/3", "0/3", 0, 3},
		{"valid 1/3", "1/3", 1, 3},
		{"valid 2/3", "2/3", 2, 3},
		{"invalid format", "invalid", 0, 1},
		{"zero total", "0/0", 0, 1},
		{"negative total", "0/-1", 0, 1},
		{"negative index", "-1/3", 0, 1},
		{"index >= total", "3/3", 0, 1},
		{"index > total", "5/3", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotIndex, gotTotal := parseShardFlag(tt.shard)
			assert.Equal(t, tt.wantIndex, gotIndex, "index")
			assert.Equal(t, tt.wantTotal, gotTotal, "total")
		})
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "crucible", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd, args := newTestRootCmd(t, newVersionCmd())
	output := &bytes.Buffer{}
	cmd.SetOut(output)

	cmd.SetArgs(args)
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "--mutants")
}

func TestInit(t *testing.T) {
	assert.NotNil(t, ui)
	assert.NotNil(t, reportStore)
	assert.NotNil(t, mutantStore)
}

func TestWorkerCmdIsHidden(t *testing.T) {
	found, _, err := rootCmd.Find([]string{childproc.WorkerCommand})
	require.NoError(t, err)

	assert.Equal(t, childproc.WorkerCommand, found.Name())
	assert.True(t, found.Hidden)
}

func TestExecute(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() { rootCmd = originalRootCmd }()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(*cobra.Command, []string) error {
			return nil
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})
	mockCmd.SetArgs([]string{})

	rootCmd = mockCmd

	// Execute only exits on error.
	Execute()
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(*cobra.Command, []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		mockCmd.SetArgs([]string{})
		rootCmd = mockCmd

		Execute() // This should call os.Exit(1)

		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	require.Error(t, err)

	var exitErr *exec.ExitError
	if assert.ErrorAs(t, err, &exitErr) {
		assert.Equal(t, 1, exitErr.ExitCode())
	}

	assert.Contains(t, string(output), "error occurred")
}
