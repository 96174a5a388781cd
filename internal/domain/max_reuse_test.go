package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/crucible/internal/model"
)

func TestMaxReuseDecorator(t *testing.T) {
	killed := m.MutantRunResult{Status: m.MutantRunKilled, NrOfTests: 1}

	t.Run("replaces the worker after threshold runs", func(t *testing.T) {
		f := newRunnerFactory(t, 3)
		f.runners[0].EXPECT().MutantRun(mock.Anything, mock.Anything).Return(killed, nil).Twice()
		f.expectRecover(0)
		f.runners[1].EXPECT().MutantRun(mock.Anything, mock.Anything).Return(killed, nil).Twice()
		f.expectRecover(1)
		f.runners[2].EXPECT().MutantRun(mock.Anything, mock.Anything).Return(killed, nil).Once()

		d := NewMaxReuseDecorator(f.next, 2)

		for i := range 5 {
			_, err := d.MutantRun(context.Background(), validRunOptions("1"))
			require.NoError(t, err, "run %d", i)
		}

		assert.Equal(t, 3, f.created)
	})

	t.Run("threshold one recovers before every later run", func(t *testing.T) {
		f := newRunnerFactory(t, 2)
		f.runners[0].EXPECT().MutantRun(mock.Anything, mock.Anything).Return(killed, nil).Once()
		f.expectRecover(0)
		f.runners[1].EXPECT().MutantRun(mock.Anything, mock.Anything).Return(killed, nil).Once()

		d := NewMaxReuseDecorator(f.next, 1)

		_, err := d.MutantRun(context.Background(), validRunOptions("1"))
		require.NoError(t, err)
		assert.Empty(t, f.events)

		_, err = d.MutantRun(context.Background(), validRunOptions("2"))
		require.NoError(t, err)
		assert.Equal(t, []string{"dispose", "init"}, f.events)
	})

	t.Run("zero threshold reuses forever", func(t *testing.T) {
		f := newRunnerFactory(t, 1)
		f.runners[0].EXPECT().MutantRun(mock.Anything, mock.Anything).Return(killed, nil).Times(10)

		d := NewMaxReuseDecorator(f.next, 0)

		for range 10 {
			_, err := d.MutantRun(context.Background(), validRunOptions("1"))
			require.NoError(t, err)
		}

		assert.Equal(t, 1, f.created)
	})

	t.Run("dispose resets the counter", func(t *testing.T) {
		f := newRunnerFactory(t, 1)
		f.runners[0].EXPECT().MutantRun(mock.Anything, mock.Anything).Return(killed, nil).Twice()
		f.runners[0].EXPECT().Dispose(mock.Anything).Return(nil).Once()

		d := NewMaxReuseDecorator(f.next, 1)

		_, err := d.MutantRun(context.Background(), validRunOptions("1"))
		require.NoError(t, err)
		require.NoError(t, d.Dispose(context.Background()))

		_, err = d.MutantRun(context.Background(), validRunOptions("2"))
		require.NoError(t, err)
		assert.Equal(t, 1, f.created)
	})
}
