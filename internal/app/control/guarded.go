package control

import "sync"

// Guarded holds a value that can only be reached while its own lock is held.
type Guarded[T any] struct {
	mu sync.Mutex
	v  T
}

func NewGuarded[T any](v T) *Guarded[T] {
	return &Guarded[T]{v: v}
}

func (g *Guarded[T]) Load() T {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v
}

func (g *Guarded[T]) Store(v T) {
	g.mu.Lock()
	g.v = v
	g.mu.Unlock()
}

// Swap stores v and returns the previous value.
func (g *Guarded[T]) Swap(v T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.v
	g.v = v
	return old
}

// With runs fn with the lock held. fn must not retain the pointer.
func (g *Guarded[T]) With(fn func(v *T) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&g.v)
}
