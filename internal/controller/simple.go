package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/crucible/internal/model"
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd        *cobra.Command
	sourceRoot string
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd, sourceRoot: "."}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.sourceRoot = newStartConfig(options).sourceRoot

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait returns immediately, SimpleUI prints and continues.
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayEstimation prints the per-file mutant counts or the error.
func (s *SimpleUI) DisplayEstimation(ctx context.Context, mutants []m.Mutant, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.printf("estimation error: %v\n", err)
		return err
	}

	s.printf("\n%s", renderEstimationTable(buildFileStats(mutants), len(mutants)))

	return nil
}

type fileStat struct {
	path   string
	count  int
	static int
}

func buildFileStats(mutants []m.Mutant) []fileStat {
	info := make(map[m.Path]fileStat)

	for _, mt := range mutants {
		stat := info[mt.FileName]
		stat.path = string(mt.FileName)
		stat.count++

		if mt.Static {
			stat.static++
		}

		info[mt.FileName] = stat
	}

	statsList := make([]fileStat, 0, len(info))
	for _, stat := range info {
		statsList = append(statsList, stat)
	}

	sort.Slice(statsList, func(i, j int) bool {
		return statsList[i].path < statsList[j].path
	})

	return statsList
}

func renderEstimationTable(statsList []fileStat, totalMutants int) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Mutants", "Static"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER})

	static := 0

	for _, stat := range statsList {
		table.Append([]string{stat.path, fmt.Sprintf("%d", stat.count), fmt.Sprintf("%d", stat.static)})
		static += stat.static
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(statsList)),
		fmt.Sprintf("%d", totalMutants),
		fmt.Sprintf("%d", static),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, workers int, shardIndex int, shardCount int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Running with %d worker(s) (Shard %d/%d)\n", workers, shardIndex, shardCount)
}

// DisplayDryRunInfo shows the outcome of the initial test run.
func (s *SimpleUI) DisplayDryRunInfo(ctx context.Context, result m.DryRunResult) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Initial test run: %s (%d tests)\n", result.Status, len(result.Tests))

	if result.Status != m.DryRunComplete {
		s.printf("%s\n", firstNonEmpty(result.ErrorMessage, result.Reason))
	}
}

// DisplayUpcomingTestsInfo shows the number of mutants about to be tested.
func (s *SimpleUI) DisplayUpcomingTestsInfo(ctx context.Context, n int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Upcoming mutants: %d\n", n)
}

// DisplayStartingTestInfo shows info about the mutant run starting.
func (s *SimpleUI) DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Starting mutant %s (%s) %s:%d\n", mutant.ID, mutant.MutatorName, mutant.FileName, mutant.Location.Start.Line)
}

// DisplayCompletedTestInfo shows the mutant's final status. Mutants that were
// not detected also get their diff printed.
func (s *SimpleUI) DisplayCompletedTestInfo(ctx context.Context, result m.MutantResult) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Completed mutant %s (%s) -> %s\n", result.Mutant.ID, result.Mutant.MutatorName, result.Status)

	if detected(result.Status) {
		return
	}

	if result.StatusReason != "" {
		s.printf("Reason: %s\n", result.StatusReason)
	}

	if diff := mutantDiff(s.sourceRoot, result.Mutant); diff != "" {
		s.printf("%s\n", diff)
	}
}

// DisplayMutationScore prints the final mutation score.
func (s *SimpleUI) DisplayMutationScore(ctx context.Context, score m.Score, timing m.Timing) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s", renderScoreTable(score))

	if timing.Runs > 0 {
		s.printf("Mutant runs: %d (p50 %s, p95 %s, max %s)\n", timing.Runs, timing.P50, timing.P95, timing.Max)
	}

	s.printf("Mutation score: %.2f%%\n", score.Value)
}

func renderScoreTable(score m.Score) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Status", "Mutants"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, row := range []struct {
		status m.MutantStatus
		count  int
	}{
		{m.StatusKilled, score.Killed},
		{m.StatusTimeout, score.Timeout},
		{m.StatusSurvived, score.Survived},
		{m.StatusNoCoverage, score.NoCoverage},
		{m.StatusCompileError, score.CompileErrors},
		{m.StatusRuntimeError, score.RuntimeErrors},
		{m.StatusIgnored, score.Ignored},
	} {
		table.Append([]string{string(row.status), fmt.Sprintf("%d", row.count)})
	}

	table.SetFooter([]string{"Total", fmt.Sprintf("%d", score.Total)})
	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func detected(status m.MutantStatus) bool {
	return status == m.StatusKilled || status == m.StatusTimeout
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
