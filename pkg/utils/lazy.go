package utils

import (
	"context"
	"sync"
)

// Lazy holds a value that is built on first use. Concurrent callers wait for
// the same load; a failed load is not cached, so the next Get tries again.
type Lazy[T any] struct {
	mu     sync.Mutex
	load   func(ctx context.Context) (T, error)
	value  T
	loaded bool
}

// NewLazy returns a Lazy that calls load the first time Get is called.
func NewLazy[T any](load func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Get returns the loaded value, loading it if needed.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return l.value, nil
	}
	v, err := l.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = v
	l.loaded = true
	return v, nil
}

// Peek returns the value without triggering a load.
func (l *Lazy[T]) Peek() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.loaded
}

// Loaded reports whether the value has been built.
func (l *Lazy[T]) Loaded() bool {
	_, ok := l.Peek()
	return ok
}
