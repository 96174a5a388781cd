package childproc

import (
	"context"
	"sync"
)

// Task is a one-shot result that can be settled exactly once.
type Task[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewTask creates an unsettled task.
func NewTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// Resolve settles the task with v. It reports false when already settled.
func (t *Task[T]) Resolve(v T) bool {
	settled := false

	t.once.Do(func() {
		t.value = v
		settled = true
		close(t.done)
	})

	return settled
}

// Reject settles the task with err. It reports false when already settled.
func (t *Task[T]) Reject(err error) bool {
	settled := false

	t.once.Do(func() {
		t.err = err
		settled = true
		close(t.done)
	})

	return settled
}

// Done is closed once the task settles.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Settled reports whether the task has a value or an error.
func (t *Task[T]) Settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task settles or ctx ends. Cancelling ctx does not
// settle the task.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
