package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gooze.dev/pkg/crucible/internal/plugin"
)

// ErrPoolDisposed is returned by Acquire after Dispose.
var ErrPoolDisposed = errors.New("pool is disposed")

type poolable interface {
	plugin.Resource
	comparable
}

// Pool hands out at most size initialised resources at a time. Resources are
// created lazily and reused after Release.
type Pool[R poolable] struct {
	factory func() R
	slots   chan struct{}

	mu       sync.Mutex
	idle     []R
	all      []R
	disposed bool
}

// NewPool creates a pool of up to size resources. A size below one means one.
func NewPool[R poolable](size int, factory func() R) *Pool[R] {
	if size < 1 {
		size = 1
	}

	return &Pool[R]{
		factory: factory,
		slots:   make(chan struct{}, size),
	}
}

// Acquire returns an idle resource or creates and initialises a new one.
func (p *Pool[R]) Acquire(ctx context.Context) (R, error) {
	var zero R

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	p.mu.Lock()

	if p.disposed {
		p.mu.Unlock()
		<-p.slots

		return zero, ErrPoolDisposed
	}

	if n := len(p.idle); n > 0 {
		r := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()

		return r, nil
	}

	r := p.factory()
	p.all = append(p.all, r)
	p.mu.Unlock()

	if err := r.Init(ctx); err != nil {
		_ = p.Discard(ctx, r)
		return zero, fmt.Errorf("failed to initialize pooled resource: %w", err)
	}

	return r, nil
}

// Release returns r to the pool.
func (p *Pool[R]) Release(r R) {
	p.mu.Lock()
	p.idle = append(p.idle, r)
	p.mu.Unlock()

	<-p.slots
}

// Discard disposes r and frees its slot for a new resource.
func (p *Pool[R]) Discard(ctx context.Context, r R) error {
	p.mu.Lock()
	p.all = remove(p.all, r)
	p.mu.Unlock()

	<-p.slots

	return r.Dispose(ctx)
}

// Run acquires a resource, calls fn with it and releases it.
func (p *Pool[R]) Run(ctx context.Context, fn func(context.Context, R) error) error {
	r, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(r)

	return fn(ctx, r)
}

// Size returns the number of live resources.
func (p *Pool[R]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.all)
}

// Dispose disposes every live resource. Acquire fails afterwards.
func (p *Pool[R]) Dispose(ctx context.Context) error {
	p.mu.Lock()
	p.disposed = true
	all := p.all
	p.all = nil
	p.idle = nil
	p.mu.Unlock()

	var errs []error

	for _, r := range all {
		if err := r.Dispose(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func remove[R comparable](items []R, r R) []R {
	for i, item := range items {
		if item == r {
			return append(items[:i], items[i+1:]...)
		}
	}

	return items
}
