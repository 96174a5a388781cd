package domain

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
	pluginmocks "gooze.dev/pkg/crucible/internal/plugin/mocks"
)

// runnerFactory hands out the given mocks in order and records lifecycle
// events so tests can assert on dispose/init ordering.
type runnerFactory struct {
	t       *testing.T
	runners []*pluginmocks.MockTestRunner
	created int

	mu     sync.Mutex
	events []string
}

func newRunnerFactory(t *testing.T, n int) *runnerFactory {
	t.Helper()

	f := &runnerFactory{t: t}
	for range n {
		f.runners = append(f.runners, pluginmocks.NewMockTestRunner(t))
	}

	return f
}

func (f *runnerFactory) next() plugin.TestRunner {
	f.t.Helper()

	if f.created >= len(f.runners) {
		f.t.Fatalf("factory asked for runner %d, only %d prepared", f.created+1, len(f.runners))
	}

	r := f.runners[f.created]
	f.created++

	return r
}

func (f *runnerFactory) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
}

// expectRecover sets up runner i to be disposed and runner i+1 to be initialised.
func (f *runnerFactory) expectRecover(i int) {
	f.runners[i].EXPECT().Dispose(mock.Anything).Run(func(context.Context) {
		f.record("dispose")
	}).Return(nil).Once()
	f.runners[i+1].EXPECT().Init(mock.Anything).Run(func(context.Context) {
		f.record("init")
	}).Return(nil).Once()
}

func validRunOptions(id string) m.MutantRunOptions {
	return m.MutantRunOptions{
		ActiveMutant: m.Mutant{ID: id, FileName: "main.go", Replacement: "false"},
	}
}

func staticRunOptions(id string) m.MutantRunOptions {
	options := validRunOptions(id)
	options.ReloadEnvironment = true

	return options
}

func reloadIs(want bool) any {
	return mock.MatchedBy(func(o m.MutantRunOptions) bool { return o.ReloadEnvironment == want })
}
