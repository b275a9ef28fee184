package injector

import (
	"context"
	"sync"
)

// Lazy wraps a dependency that is resolved on first access.
// This is useful for breaking circular dependencies or deferring
// resolution of expensive services until they're actually needed.
//
// The handle keeps the scope of the context it was created with but not
// its in-flight resolution chain, so a service may hold a Lazy of a
// service that depends on it.
type Lazy[T any] struct {
	resolver Resolver
	ctx      context.Context
	id       ServiceID
	once     sync.Once
	value    T
	err      error
	resolved bool
	mu       sync.RWMutex
}

// NewLazy creates a new lazy dependency wrapper.
func NewLazy[T any](ctx context.Context, r Resolver, id ServiceID) *Lazy[T] {
	return &Lazy[T]{
		resolver: r,
		ctx:      detachChain(ctx),
		id:       id,
	}
}

// Get resolves the dependency and returns it.
// The resolution happens only once; subsequent calls return the cached value.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		value, err := Resolve[T](l.ctx, l.resolver, l.id)

		l.mu.Lock()
		l.value, l.err = value, err
		l.resolved = err == nil
		l.mu.Unlock()
	})

	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.value, l.err
}

// MustGet resolves the dependency and returns it, panicking on error.
func (l *Lazy[T]) MustGet() T {
	value, err := l.Get()
	if err != nil {
		panic(err)
	}

	return value
}

// IsResolved returns true if the dependency has been resolved.
func (l *Lazy[T]) IsResolved() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.resolved
}

// ID returns the id of the dependency.
func (l *Lazy[T]) ID() ServiceID {
	return l.id
}

// Provider resolves a dependency on every access. Each call returns what the
// lifestyle of the service dictates: a fresh PerRequest instance, the
// instance of the captured scope, or the singleton.
type Provider[T any] struct {
	resolver Resolver
	ctx      context.Context
	id       ServiceID
}

// NewProvider creates a new provider.
func NewProvider[T any](ctx context.Context, r Resolver, id ServiceID) *Provider[T] {
	return &Provider[T]{
		resolver: r,
		ctx:      detachChain(ctx),
		id:       id,
	}
}

// Provide resolves and returns an instance of the dependency.
func (p *Provider[T]) Provide() (T, error) {
	return Resolve[T](p.ctx, p.resolver, p.id)
}

// MustProvide resolves and returns an instance, panicking on error.
func (p *Provider[T]) MustProvide() T {
	value, err := p.Provide()
	if err != nil {
		panic(err)
	}

	return value
}

// ID returns the id of the dependency.
func (p *Provider[T]) ID() ServiceID {
	return p.id
}
