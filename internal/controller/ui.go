// Package controller renders campaign progress and results, either as plain
// text or as a live terminal UI.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "gooze.dev/pkg/crucible/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeEstimate StartMode = iota
	ModeTest
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode       StartMode
	sourceRoot string
}

// WithEstimateMode sets the UI to estimation mode.
func WithEstimateMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeEstimate
	}
}

// WithTestMode sets the UI to test execution mode.
func WithTestMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeTest
	}
}

// WithSourceRoot sets the directory mutant file names are relative to. It
// is used to render diffs of surviving mutants.
func WithSourceRoot(root string) StartOption {
	return func(c *StartConfig) {
		c.sourceRoot = root
	}
}

func newStartConfig(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeTest, sourceRoot: "."}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI receives campaign events. Implementations can use different output
// methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayEstimation(ctx context.Context, mutants []m.Mutant, err error) error
	DisplayConcurrencyInfo(ctx context.Context, workers int, shardIndex int, shardCount int)
	DisplayDryRunInfo(ctx context.Context, result m.DryRunResult)
	DisplayUpcomingTestsInfo(ctx context.Context, n int)
	DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant)
	DisplayCompletedTestInfo(ctx context.Context, result m.MutantResult)
	DisplayMutationScore(ctx context.Context, score m.Score, timing m.Timing)
}

// NewUI returns the live TUI on a terminal and plain text otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
