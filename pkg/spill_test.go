package pkg

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSpill[T any](t *testing.T) FileSpill[T] {
	t.Helper()

	spill, err := NewFileSpill[T](t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() { _ = spill.Remove() })

	return spill
}

func TestFileSpill(t *testing.T) {
	t.Run("default directory", func(t *testing.T) {
		spill, err := NewFileSpill[int]("")
		require.NoError(t, err)
		require.Contains(t, spill.Path(), "crucible-spill")
		require.NoError(t, spill.Remove())

		_, err = os.Stat(spill.Path())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Append and Get", func(t *testing.T) {
		spill := newSpill[string](t)

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Append("second"))

		val, err := spill.Get(0)
		require.NoError(t, err)
		require.Equal(t, "first", val)

		val, err = spill.Get(1)
		require.NoError(t, err)
		require.Equal(t, "second", val)

		val, err = spill.Get(3)
		require.Error(t, err)
		require.Equal(t, "", val)
	})

	t.Run("AppendBatch and Len", func(t *testing.T) {
		spill := newSpill[int](t)
		require.Equal(t, uint64(0), spill.Len())

		require.NoError(t, spill.AppendBatch([]int{10, 20, 30, 40, 50}))
		require.Equal(t, uint64(5), spill.Len())

		val, err := spill.Get(4)
		require.NoError(t, err)
		require.Equal(t, 50, val)
	})

	t.Run("Range iterates in order and stops on error", func(t *testing.T) {
		spill := newSpill[int](t)
		require.NoError(t, spill.AppendBatch([]int{100, 200, 300}))

		var collected []int
		require.NoError(t, spill.Range(func(_ uint64, item int) error {
			collected = append(collected, item)
			return nil
		}))
		require.Equal(t, []int{100, 200, 300}, collected)

		count := 0
		err := spill.Range(func(index uint64, _ int) error {
			count++
			if index == 1 {
				return errors.New("stop at index 1")
			}

			return nil
		})
		require.Error(t, err)
		require.Equal(t, 2, count)
	})

	t.Run("data stays readable after Close", func(t *testing.T) {
		spill := newSpill[int](t)
		require.NoError(t, spill.Append(1))
		require.NoError(t, spill.Close())

		val, err := spill.Get(0)
		require.NoError(t, err)
		require.Equal(t, 1, val)

		require.Error(t, spill.Append(2))
	})

	t.Run("structs with slices do not bleed between items", func(t *testing.T) {
		type result struct {
			ID       string
			KilledBy []string
		}

		spill := newSpill[result](t)
		require.NoError(t, spill.Append(result{ID: "1", KilledBy: []string{"TestA", "TestB"}}))
		require.NoError(t, spill.Append(result{ID: "2"}))

		second, err := spill.Get(1)
		require.NoError(t, err)
		require.Equal(t, "2", second.ID)
		require.Empty(t, second.KilledBy)
	})
}

func BenchmarkAppend(b *testing.B) {
	spill, err := NewFileSpill[int](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create spill: %v", err)
	}
	defer spill.Remove()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Append(i)
	}
}

func BenchmarkRange(b *testing.B) {
	spill, err := NewFileSpill[int](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create spill: %v", err)
	}
	defer spill.Remove()

	for i := 0; i < 1000; i++ {
		_ = spill.Append(i)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Range(func(uint64, int) error { return nil })
	}
}
