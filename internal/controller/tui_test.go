package controller

import (
	"bytes"
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/crucible/internal/model"
)

func update(t *testing.T, cm campaignModel, msgs ...tea.Msg) campaignModel {
	t.Helper()

	for _, msg := range msgs {
		next, _ := cm.Update(msg)

		var ok bool
		cm, ok = next.(campaignModel)
		require.True(t, ok)
	}

	return cm
}

func TestCampaignModel_TracksProgress(t *testing.T) {
	mutant := m.Mutant{ID: "1", FileName: "a.go", Location: m.Location{Start: m.Position{Line: 4}}}

	cm := update(t, newCampaignModel(),
		concurrencyMsg{workers: 2, shardIndex: 0, shardCount: 1},
		upcomingMsg(2),
		startedMsg(mutant),
	)

	assert.Len(t, cm.running, 1)
	assert.Contains(t, cm.View(), "1 mutant(s) running")

	cm = update(t, cm,
		completedMsg(m.MutantResult{Mutant: mutant, Status: m.StatusSurvived}),
		completedMsg(m.MutantResult{Mutant: m.Mutant{ID: "2"}, Status: m.StatusKilled}),
	)

	assert.Empty(t, cm.running)
	assert.Equal(t, 2, cm.completed)
	assert.InDelta(t, 1.0, cm.percent(), 0.001)
	assert.Len(t, cm.undetected, 1)

	view := cm.View()
	assert.Contains(t, view, "2/2")
	assert.Contains(t, view, "a.go:4")
	assert.Contains(t, view, "shard 0/1")
}

func TestCampaignModel_KeepsRecentUndetected(t *testing.T) {
	cm := newCampaignModel()

	for i := 0; i < recentLimit+3; i++ {
		cm = update(t, cm, completedMsg(m.MutantResult{Status: m.StatusSurvived}))
	}

	assert.Len(t, cm.undetected, recentLimit)
}

func TestCampaignModel_ShowsScoreAndQuits(t *testing.T) {
	cm := update(t, newCampaignModel(), scoreMsg{score: m.Score{Killed: 1, Total: 1, Value: 100}})

	assert.Contains(t, cm.View(), "Mutation score: 100.00%")
	assert.Contains(t, cm.View(), "Press q to quit")

	next, cmd := cm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Empty(t, next.View())
}

func TestTUI_DisplayEstimationPrintsTable(t *testing.T) {
	var buf bytes.Buffer

	ui := NewTUI(&buf)
	require.NoError(t, ui.Start(context.Background(), WithEstimateMode()))

	err := ui.DisplayEstimation(context.Background(), []m.Mutant{{ID: "1", FileName: "x.go"}}, nil)
	require.NoError(t, err)

	ui.Wait(context.Background())
	ui.Close(context.Background())

	assert.Contains(t, buf.String(), "x.go")
	assert.Contains(t, buf.String(), "Mutants")
}

func TestTUI_EventsWithoutProgramAreDropped(t *testing.T) {
	ui := NewTUI(&bytes.Buffer{})

	assert.NotPanics(t, func() {
		ui.DisplayUpcomingTestsInfo(context.Background(), 1)
		ui.DisplayCompletedTestInfo(context.Background(), m.MutantResult{})
		ui.Close(context.Background())
	})
}
