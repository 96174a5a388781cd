package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/crucible/internal/model"
)

func TestTimeoutDecorator(t *testing.T) {
	t.Run("hung worker is replaced", func(t *testing.T) {
		f := newRunnerFactory(t, 2)
		f.runners[0].EXPECT().MutantRun(mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, _ m.MutantRunOptions) (m.MutantRunResult, error) {
				<-ctx.Done()
				return m.MutantRunResult{}, ctx.Err()
			}).Once()
		f.expectRecover(0)

		d := NewTimeoutDecorator(f.next, 10*time.Millisecond)

		options := validRunOptions("1")
		options.Timeout = 10 * time.Millisecond

		result, err := d.MutantRun(context.Background(), options)
		require.NoError(t, err)
		assert.Equal(t, m.MutantRunTimeout, result.Status)
		assert.Equal(t, []string{"dispose", "init"}, f.events)
	})

	t.Run("reported timeout also replaces the worker", func(t *testing.T) {
		f := newRunnerFactory(t, 2)
		f.runners[0].EXPECT().MutantRun(mock.Anything, mock.Anything).
			Return(m.MutantRunResult{Status: m.MutantRunTimeout, Reason: "deadline"}, nil).Once()
		f.expectRecover(0)

		d := NewTimeoutDecorator(f.next, time.Second)

		result, err := d.MutantRun(context.Background(), validRunOptions("1"))
		require.NoError(t, err)
		assert.Equal(t, m.MutantRunTimeout, result.Status)
		assert.Equal(t, "deadline", result.Reason)
		assert.Equal(t, 2, f.created)
	})

	t.Run("reported dry run timeout replaces the worker", func(t *testing.T) {
		f := newRunnerFactory(t, 2)
		f.runners[0].EXPECT().DryRun(mock.Anything, mock.Anything).
			Return(m.DryRunResult{Status: m.DryRunTimeout, Reason: "tests hung"}, nil).Once()
		f.expectRecover(0)

		d := NewTimeoutDecorator(f.next, time.Second)

		result, err := d.DryRun(context.Background(), m.DryRunOptions{CoverageAnalysis: m.CoverageOff})
		require.NoError(t, err)
		assert.Equal(t, m.DryRunTimeout, result.Status)
		assert.Equal(t, "tests hung", result.Reason)
		assert.Equal(t, []string{"dispose", "init"}, f.events)
	})

	t.Run("completed dry run keeps the worker", func(t *testing.T) {
		f := newRunnerFactory(t, 1)
		f.runners[0].EXPECT().DryRun(mock.Anything, mock.Anything).
			Return(m.DryRunResult{Status: m.DryRunComplete}, nil).Once()

		d := NewTimeoutDecorator(f.next, time.Second)

		result, err := d.DryRun(context.Background(), m.DryRunOptions{CoverageAnalysis: m.CoverageOff})
		require.NoError(t, err)
		assert.Equal(t, m.DryRunComplete, result.Status)
		assert.Equal(t, 1, f.created)
	})

	t.Run("caller cancellation is not a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		f := newRunnerFactory(t, 1)
		f.runners[0].EXPECT().MutantRun(mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, _ m.MutantRunOptions) (m.MutantRunResult, error) {
				cancel()
				return m.MutantRunResult{}, ctx.Err()
			}).Once()

		d := NewTimeoutDecorator(f.next, time.Second)

		options := validRunOptions("1")
		options.Timeout = time.Minute

		_, err := d.MutantRun(ctx, options)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, f.created)
	})
}
