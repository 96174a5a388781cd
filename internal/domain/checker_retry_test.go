package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/crucible/internal/childproc"
	m "gooze.dev/pkg/crucible/internal/model"
	"gooze.dev/pkg/crucible/internal/plugin"
	pluginmocks "gooze.dev/pkg/crucible/internal/plugin/mocks"
)

func checkerFactory(checkers ...*pluginmocks.MockChecker) (func() plugin.Checker, *int) {
	created := 0

	return func() plugin.Checker {
		c := checkers[created]
		created++

		return c
	}, &created
}

func TestCheckerRetryDecorator(t *testing.T) {
	mutants := []m.Mutant{{ID: "1", FileName: "main.go"}}
	passed := map[string]m.CheckResult{"1": {Status: m.CheckPassed}}

	t.Run("crash is retried once on a new checker", func(t *testing.T) {
		first, second := pluginmocks.NewMockChecker(t), pluginmocks.NewMockChecker(t)
		first.EXPECT().Check(mock.Anything, mutants).
			Return(nil, &childproc.ChildProcessCrashedError{PID: 3, Message: "crashed"}).Once()
		first.EXPECT().Dispose(mock.Anything).Return(nil).Once()
		second.EXPECT().Init(mock.Anything).Return(nil).Once()
		second.EXPECT().Check(mock.Anything, mutants).Return(passed, nil).Once()

		factory, created := checkerFactory(first, second)
		d := NewCheckerRetryDecorator(factory)

		result, err := d.Check(context.Background(), mutants)
		require.NoError(t, err)
		assert.Equal(t, passed, result)
		assert.Equal(t, 2, *created)
	})

	t.Run("second crash propagates", func(t *testing.T) {
		first, second := pluginmocks.NewMockChecker(t), pluginmocks.NewMockChecker(t)
		first.EXPECT().Check(mock.Anything, mutants).
			Return(nil, &childproc.ChildProcessCrashedError{PID: 3, Message: "crashed"}).Once()
		first.EXPECT().Dispose(mock.Anything).Return(nil).Once()
		second.EXPECT().Init(mock.Anything).Return(nil).Once()
		second.EXPECT().Check(mock.Anything, mutants).
			Return(nil, &childproc.ChildProcessCrashedError{PID: 4, Message: "crashed again"}).Once()

		factory, _ := checkerFactory(first, second)
		d := NewCheckerRetryDecorator(factory)

		_, err := d.Check(context.Background(), mutants)
		require.True(t, childproc.IsCrashed(err))
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		only := pluginmocks.NewMockChecker(t)
		oops := errors.New("oops")
		only.EXPECT().Check(mock.Anything, mutants).Return(nil, oops).Once()

		factory, created := checkerFactory(only)
		d := NewCheckerChain(factory)

		_, err := d.Check(context.Background(), mutants)
		require.ErrorIs(t, err, oops)
		assert.Equal(t, 1, *created)
	})
}
