package injector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Disposable is implemented by instances that hold resources. Scopes call
// Dispose on their scoped instances when they end, and Container.Close does
// the same for singletons. io.Closer is honoured as well.
type Disposable interface {
	Dispose() error
}

// Scope is a bounded span during which scoped instances are cached and
// shared. A scope lives in the context returned by Context; nested scopes
// shadow their parents and the parent context is left untouched.
type Scope struct {
	id        string
	container *Container
	parent    *Scope
	ctx       context.Context
	store     *instanceStore
	metadata  map[string]string
	ended     bool
	mu        sync.RWMutex
}

// scopeKey scopes the context slot to one container.
type scopeKey struct {
	c *Container
}

// activeScopeKey holds the innermost scope of any container.
type activeScopeKey struct{}

// BeginScope opens a new, empty scope on top of ctx. The caller must call
// End; CreateScope does so automatically.
func (c *Container) BeginScope(ctx context.Context) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Scope{
		id:        uuid.NewString(),
		container: c,
		parent:    c.ScopeFrom(ctx),
		store:     newInstanceStore(c.locks),
	}

	s.ctx = s.attach(ctx)

	c.logger.Debug("scope begun",
		zap.String("scope", s.id),
		zap.Int("depth", s.Depth()),
	)

	return s
}

// CreateScope runs fn inside a new scope and ends the scope when fn returns
// or panics. The error of End is joined to the error of fn.
func (c *Container) CreateScope(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s := c.BeginScope(ctx)

	defer func() {
		if endErr := s.End(); endErr != nil {
			err = errors.Join(err, endErr)
		}
	}()

	return fn(s.Context())
}

// ScopeFrom returns the innermost scope of c carried by ctx, or nil.
func (c *Container) ScopeFrom(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}

	s, _ := ctx.Value(scopeKey{c: c}).(*Scope)

	return s
}

// ScopeFromContext returns the innermost scope of any container carried by
// ctx, or nil.
func ScopeFromContext(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}

	s, _ := ctx.Value(activeScopeKey{}).(*Scope)

	return s
}

// attach returns ctx with s as the active scope.
func (s *Scope) attach(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, scopeKey{c: s.container}, s)

	return context.WithValue(ctx, activeScopeKey{}, s)
}

// ID returns the unique id of the scope.
func (s *Scope) ID() string {
	return s.id
}

// Context returns the context that carries this scope.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Parent returns the enclosing scope of the same container, or nil.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Depth returns the nesting level, starting at 1.
func (s *Scope) Depth() int {
	depth := 0
	for cur := s; cur != nil; cur = cur.parent {
		depth++
	}

	return depth
}

// Container returns the container that opened the scope.
func (s *Scope) Container() *Container {
	return s.container
}

// Get resolves id with this scope active. The resolution chain of ctx is
// kept, so Get can be used from inside a factory.
func (s *Scope) Get(ctx context.Context, id ServiceID) (any, error) {
	if ctx == nil {
		ctx = s.ctx
	} else if s.container.ScopeFrom(ctx) != s {
		ctx = s.attach(ctx)
	}

	return s.container.Get(ctx, id)
}

// Resolve resolves id in this scope's own context.
func (s *Scope) Resolve(id ServiceID) (any, error) {
	return s.container.Get(s.ctx, id)
}

// Has checks if a service is registered in the owning container.
func (s *Scope) Has(id ServiceID) bool {
	return s.container.Has(id)
}

// Ended reports whether End has been called.
func (s *Scope) Ended() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ended
}

// SetMetadata attaches a diagnostic value to the scope, such as a request id.
func (s *Scope) SetMetadata(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metadata == nil {
		s.metadata = make(map[string]string)
	}

	s.metadata[key] = value
}

// Metadata returns the value stored under key.
func (s *Scope) Metadata(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.metadata[key]

	return value, ok
}

// getOrBuild returns the scoped instance of id, building it once. An
// instance that finishes building after End is disposed, not cached.
func (s *Scope) getOrBuild(ch *chain, id ServiceID, build func() (any, error)) (any, error) {
	if s.Ended() {
		return nil, ScopeEndedError(s.id)
	}

	instance, err := s.store.getOrBuild(ch, id, build)
	if errors.Is(err, errStoreDrained) {
		return nil, discardLate(ScopeEndedError(s.id), id, instance)
	}

	return instance, err
}

// End disposes the scoped instances in reverse build order and closes the
// scope. Ending a scope twice returns ErrScopeEnded.
func (s *Scope) End() error {
	s.mu.Lock()

	if s.ended {
		s.mu.Unlock()

		return ScopeEndedError(s.id)
	}

	s.ended = true
	s.mu.Unlock()

	instances := s.store.drain()
	errs := disposeAll(instances)

	s.container.logger.Debug("scope ended",
		zap.String("scope", s.id),
		zap.Int("instances", len(instances)),
		zap.Int("errors", len(errs)),
	)

	if len(errs) > 0 {
		return fmt.Errorf("scope cleanup: %w", errors.Join(errs...))
	}

	return nil
}

// disposeAll releases every instance that implements Disposable or io.Closer.
func disposeAll(instances []builtInstance) []error {
	var errs []error

	for _, inst := range instances {
		var err error

		switch v := inst.value.(type) {
		case Disposable:
			err = v.Dispose()
		case io.Closer:
			err = v.Close()
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to dispose %s: %w", inst.id, err))
		}
	}

	return errs
}
