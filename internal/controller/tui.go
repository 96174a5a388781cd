package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "gooze.dev/pkg/crucible/internal/model"
)

// recentLimit is how many of the latest undetected mutants the dashboard keeps.
const recentLimit = 8

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#9CA3AF")

	titleStyle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	killedStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	survivedStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	helpStyle     = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

var quitKey = key.NewBinding(
	key.WithKeys("q", "esc", "ctrl+c"),
	key.WithHelp("q", "quit"),
)

// TUI implements UI with a live Bubble Tea dashboard during test runs.
// Estimations are not interactive and are printed as a table.
type TUI struct {
	output io.Writer

	mu         sync.Mutex
	program    *tea.Program
	done       chan struct{}
	sourceRoot string
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, sourceRoot: "."}
}

// Start launches the dashboard in test mode.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sourceRoot = cfg.sourceRoot

	if cfg.mode != ModeTest || t.program != nil {
		return nil
	}

	t.program = tea.NewProgram(newCampaignModel(), tea.WithOutput(t.output), tea.WithContext(ctx))
	t.done = make(chan struct{})

	go func(p *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			slog.Error("Dashboard stopped", "error", err)
		}
	}(t.program, t.done)

	return nil
}

// Close stops the dashboard and waits for it to restore the terminal.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	p, done := t.program, t.done
	t.program = nil
	t.mu.Unlock()

	if p == nil {
		return
	}

	p.Quit()
	<-done
}

// Wait blocks until the user quits the dashboard.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// DisplayEstimation prints the per-file mutant counts or the error.
func (t *TUI) DisplayEstimation(ctx context.Context, mutants []m.Mutant, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		_, _ = fmt.Fprintln(t.output, survivedStyle.Render("estimation error: "+err.Error()))
		return err
	}

	_, werr := fmt.Fprintf(t.output, "%s\n%s", titleStyle.Render("Mutants"), renderEstimationTable(buildFileStats(mutants), len(mutants)))

	return werr
}

// DisplayConcurrencyInfo implements UI.
func (t *TUI) DisplayConcurrencyInfo(_ context.Context, workers int, shardIndex int, shardCount int) {
	t.send(concurrencyMsg{workers: workers, shardIndex: shardIndex, shardCount: shardCount})
}

// DisplayDryRunInfo implements UI.
func (t *TUI) DisplayDryRunInfo(_ context.Context, result m.DryRunResult) {
	t.send(dryRunMsg{status: result.Status, tests: len(result.Tests), reason: firstNonEmpty(result.ErrorMessage, result.Reason)})
}

// DisplayUpcomingTestsInfo implements UI.
func (t *TUI) DisplayUpcomingTestsInfo(_ context.Context, n int) {
	t.send(upcomingMsg(n))
}

// DisplayStartingTestInfo implements UI.
func (t *TUI) DisplayStartingTestInfo(_ context.Context, mutant m.Mutant) {
	t.send(startedMsg(mutant))
}

// DisplayCompletedTestInfo implements UI.
func (t *TUI) DisplayCompletedTestInfo(_ context.Context, result m.MutantResult) {
	t.send(completedMsg(result))
}

// DisplayMutationScore implements UI.
func (t *TUI) DisplayMutationScore(_ context.Context, score m.Score, timing m.Timing) {
	t.send(scoreMsg{score: score, timing: timing})
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	p := t.program
	t.mu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

type concurrencyMsg struct {
	workers    int
	shardIndex int
	shardCount int
}

type dryRunMsg struct {
	status m.DryRunStatus
	tests  int
	reason string
}

type upcomingMsg int

type startedMsg m.Mutant

type completedMsg m.MutantResult

type scoreMsg struct {
	score  m.Score
	timing m.Timing
}

// campaignModel is the dashboard state.
type campaignModel struct {
	bar        progress.Model
	width      int
	workers    int
	shard      string
	dryRun     string
	total      int
	completed  int
	running    map[string]m.Mutant
	counts     map[m.MutantStatus]int
	undetected []m.MutantResult
	final      *scoreMsg
	quitting   bool
}

func newCampaignModel() campaignModel {
	return campaignModel{
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		running: make(map[string]m.Mutant),
		counts:  make(map[m.MutantStatus]int),
	}
}

func (cm campaignModel) Init() tea.Cmd {
	return nil
}

//nolint:cyclop // one case per event type
func (cm campaignModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cm.width = msg.Width
		cm.bar.Width = min(60, max(10, msg.Width-20))
	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			cm.quitting = true
			return cm, tea.Quit
		}
	case concurrencyMsg:
		cm.workers = msg.workers
		cm.shard = fmt.Sprintf("%d/%d", msg.shardIndex, msg.shardCount)
	case dryRunMsg:
		cm.dryRun = fmt.Sprintf("%s (%d tests)", msg.status, msg.tests)
		if msg.reason != "" {
			cm.dryRun += ": " + msg.reason
		}
	case upcomingMsg:
		cm.total = int(msg)
	case startedMsg:
		cm.running[msg.ID] = m.Mutant(msg)
	case completedMsg:
		delete(cm.running, msg.Mutant.ID)
		cm.completed++
		cm.counts[msg.Status]++

		if !detected(msg.Status) && msg.Status != m.StatusIgnored {
			cm.undetected = append(cm.undetected, m.MutantResult(msg))
			if len(cm.undetected) > recentLimit {
				cm.undetected = cm.undetected[len(cm.undetected)-recentLimit:]
			}
		}
	case scoreMsg:
		cm.final = &msg
	}

	return cm, nil
}

func (cm campaignModel) View() string {
	if cm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("crucible mutation testing"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("workers %d  shard %s", cm.workers, cm.shard)))
	b.WriteString("\n")

	if cm.dryRun != "" {
		b.WriteString(mutedStyle.Render("initial run: " + cm.dryRun))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(cm.bar.ViewAs(cm.percent()))
	fmt.Fprintf(&b, "  %d/%d\n", cm.completed, cm.total)
	b.WriteString(cm.renderCounts())
	b.WriteString("\n")

	if len(cm.undetected) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render("Undetected"))
		b.WriteString("\n")

		for _, r := range cm.undetected {
			fmt.Fprintf(&b, "  %s %s %s:%d\n", survivedStyle.Render(string(r.Status)), r.Mutant.ID, r.Mutant.FileName, r.Mutant.Location.Start.Line)
		}
	}

	if cm.final != nil {
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(cm.renderScore()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Press q to quit"))
		b.WriteString("\n")
	} else if len(cm.running) > 0 {
		fmt.Fprintf(&b, "\n%s\n", mutedStyle.Render(fmt.Sprintf("%d mutant(s) running", len(cm.running))))
	}

	return b.String()
}

func (cm campaignModel) percent() float64 {
	if cm.total == 0 {
		return 0
	}

	return float64(cm.completed) / float64(cm.total)
}

func (cm campaignModel) renderCounts() string {
	parts := []string{
		killedStyle.Render(fmt.Sprintf("killed %d", cm.counts[m.StatusKilled])),
		killedStyle.Render(fmt.Sprintf("timeout %d", cm.counts[m.StatusTimeout])),
		survivedStyle.Render(fmt.Sprintf("survived %d", cm.counts[m.StatusSurvived])),
		warningStyle.Render(fmt.Sprintf("no coverage %d", cm.counts[m.StatusNoCoverage])),
		mutedStyle.Render(fmt.Sprintf("errors %d", cm.counts[m.StatusCompileError]+cm.counts[m.StatusRuntimeError])),
	}

	return strings.Join(parts, "  ")
}

func (cm campaignModel) renderScore() string {
	s := cm.final.score
	line := fmt.Sprintf("Mutation score: %.2f%%  (%d killed, %d timeout, %d survived, %d no coverage of %d)",
		s.Value, s.Killed, s.Timeout, s.Survived, s.NoCoverage, s.Total)

	if timing := cm.final.timing; timing.Runs > 0 {
		line += fmt.Sprintf("\nMutant runs: %d (p50 %s, p95 %s, max %s)", timing.Runs, timing.P50, timing.P95, timing.Max)
	}

	return line
}
