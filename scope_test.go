package injector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerScopedCounter(t *testing.T, c *Container, id ServiceID) *atomic.Int32 {
	t.Helper()

	var calls atomic.Int32

	err := c.Register(id, Func(func(ctx context.Context) (any, error) {
		calls.Add(1)

		return &mockService{name: string(id)}, nil
	}), Scoped())
	require.NoError(t, err)

	return &calls
}

func TestScope_ResolveSingleton(t *testing.T) {
	c := New()

	err := c.Register("singleton", newMock("singleton"), Singleton())
	require.NoError(t, err)

	scope := c.BeginScope(context.Background())
	defer func() { _ = scope.End() }()

	// Resolve singleton from scope
	val, err := scope.Resolve("singleton")
	assert.NoError(t, err)
	assert.NotNil(t, val)

	// Should be same instance as container
	containerVal, err := c.Get(context.Background(), "singleton")
	require.NoError(t, err)
	assert.Same(t, containerVal, val)
}

func TestScope_ResolveScoped(t *testing.T) {
	c := New()
	calls := registerScopedCounter(t, c, "scoped")

	scope := c.BeginScope(context.Background())
	defer func() { _ = scope.End() }()

	val1, err := scope.Resolve("scoped")
	assert.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// Second resolve in same scope - should use cached instance
	val2, err := c.Get(scope.Context(), "scoped")
	assert.NoError(t, err)
	assert.Same(t, val1, val2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScope_ResolveScoped_DifferentScopes(t *testing.T) {
	c := New()
	calls := registerScopedCounter(t, c, "scoped")

	scope1 := c.BeginScope(context.Background())
	val1, err := scope1.Resolve("scoped")
	require.NoError(t, err)
	require.NoError(t, scope1.End())

	scope2 := c.BeginScope(context.Background())
	defer func() { _ = scope2.End() }()

	val2, err := scope2.Resolve("scoped")
	require.NoError(t, err)

	assert.NotSame(t, val1, val2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScope_ScopedWithoutScope(t *testing.T) {
	c := New()
	calls := registerScopedCounter(t, c, "scoped")

	_, err := c.Get(context.Background(), "scoped")
	assert.ErrorIs(t, err, ErrNoActiveScope)
	assert.Equal(t, int32(0), calls.Load())
}

func TestScope_PerRequestInsideScope(t *testing.T) {
	c := New()
	require.NoError(t, c.Register("transient", newMock("t")))

	scope := c.BeginScope(context.Background())
	defer func() { _ = scope.End() }()

	first, err := scope.Resolve("transient")
	require.NoError(t, err)

	second, err := scope.Resolve("transient")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}

func TestScope_Nested(t *testing.T) {
	c := New()
	registerScopedCounter(t, c, "scoped")

	outer := c.BeginScope(context.Background())
	defer func() { _ = outer.End() }()

	outerVal, err := outer.Resolve("scoped")
	require.NoError(t, err)

	inner := c.BeginScope(outer.Context())
	assert.Same(t, outer, inner.Parent())
	assert.Equal(t, 2, inner.Depth())

	innerVal, err := inner.Resolve("scoped")
	require.NoError(t, err)
	assert.NotSame(t, outerVal, innerVal, "a new scope starts empty")

	require.NoError(t, inner.End())

	// The outer context still carries the outer scope
	assert.Same(t, outer, c.ScopeFrom(outer.Context()))

	again, err := c.Get(outer.Context(), "scoped")
	require.NoError(t, err)
	assert.Same(t, outerVal, again)
}

func TestScope_End(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Register("disposable", newMock("d"), Scoped()))
	require.NoError(t, c.Register("closer", Func(func(ctx context.Context) (any, error) {
		return &mockCloser{name: "c"}, nil
	}), Scoped()))

	scope := c.BeginScope(ctx)

	d, err := Resolve[*mockService](scope.Context(), c, "disposable")
	require.NoError(t, err)

	cl, err := Resolve[*mockCloser](scope.Context(), c, "closer")
	require.NoError(t, err)

	assert.False(t, scope.Ended())
	require.NoError(t, scope.End())

	assert.True(t, scope.Ended())
	assert.True(t, d.disposed)
	assert.True(t, cl.closed)

	// Second End fails
	assert.ErrorIs(t, scope.End(), ErrScopeEnded)

	// Resolution in an ended scope fails
	_, err = scope.Resolve("disposable")
	assert.ErrorIs(t, err, ErrScopeEnded)
}

func TestScope_EndDisposalError(t *testing.T) {
	c := New()

	errClose := errors.New("close failed")

	require.NoError(t, c.Register("bad", Func(func(ctx context.Context) (any, error) {
		return &mockService{closeErr: errClose}, nil
	}), Scoped()))

	scope := c.BeginScope(context.Background())
	_, err := scope.Resolve("bad")
	require.NoError(t, err)

	err = scope.End()
	assert.ErrorIs(t, err, errClose)
	assert.True(t, scope.Ended())
}

func TestScope_EndDuringBuild(t *testing.T) {
	c := New()

	started := make(chan struct{})
	release := make(chan struct{})
	late := &mockService{name: "late"}

	require.NoError(t, c.Register("slow", Func(func(ctx context.Context) (any, error) {
		close(started)
		<-release

		return late, nil
	}), Scoped()))

	scope := c.BeginScope(context.Background())
	errc := make(chan error, 1)

	go func() {
		_, err := scope.Resolve("slow")
		errc <- err
	}()

	<-started
	require.NoError(t, scope.End())
	close(release)

	assert.ErrorIs(t, <-errc, ErrScopeEnded)
	assert.True(t, late.disposed, "an instance built after End is disposed")
}

func TestScope_EndDoesNotDisposeSingletons(t *testing.T) {
	c := New()
	require.NoError(t, c.Register("singleton", newMock("s"), Singleton()))

	scope := c.BeginScope(context.Background())

	s, err := Resolve[*mockService](scope.Context(), scope, "singleton")
	require.NoError(t, err)
	require.NoError(t, scope.End())

	assert.False(t, s.disposed)
}

func TestCreateScope(t *testing.T) {
	c := New()
	calls := registerScopedCounter(t, c, "scoped")
	ctx := context.Background()

	var seen *Scope

	err := c.CreateScope(ctx, func(ctx context.Context) error {
		seen = ScopeFromContext(ctx)
		require.NotNil(t, seen)

		a, err := c.Get(ctx, "scoped")
		require.NoError(t, err)

		b, err := c.Get(ctx, "scoped")
		require.NoError(t, err)

		assert.Same(t, a, b)

		return nil
	})
	require.NoError(t, err)

	assert.True(t, seen.Ended())
	assert.Equal(t, int32(1), calls.Load())
	assert.Nil(t, c.ScopeFrom(ctx), "the caller's context is untouched")
}

func TestCreateScope_Error(t *testing.T) {
	c := New()
	ctx := context.Background()

	errWork := errors.New("work failed")

	var seen *Scope

	err := c.CreateScope(ctx, func(ctx context.Context) error {
		seen = ScopeFromContext(ctx)

		return errWork
	})

	assert.ErrorIs(t, err, errWork)
	assert.True(t, seen.Ended())

	_, err = c.Get(ctx, "anything")
	assert.ErrorIs(t, err, ErrUnregisteredService)
}

func TestCreateScope_Panic(t *testing.T) {
	c := New()
	ctx := context.Background()

	var seen *Scope

	assert.Panics(t, func() {
		_ = c.CreateScope(ctx, func(ctx context.Context) error {
			seen = ScopeFromContext(ctx)

			panic("boom")
		})
	})

	require.NotNil(t, seen)
	assert.True(t, seen.Ended())
	assert.Nil(t, c.ScopeFrom(ctx))
}

func TestCreateScope_JoinsEndError(t *testing.T) {
	c := New()

	errWork := errors.New("work failed")
	errClose := errors.New("close failed")

	require.NoError(t, c.Register("bad", Value(&mockService{closeErr: errClose}), Scoped()))

	err := c.CreateScope(context.Background(), func(ctx context.Context) error {
		_, err := c.Get(ctx, "bad")
		require.NoError(t, err)

		return errWork
	})

	assert.ErrorIs(t, err, errWork)
	assert.ErrorIs(t, err, errClose)
}

func TestScope_Isolation(t *testing.T) {
	c := New()
	registerScopedCounter(t, c, "scoped")

	const scopes = 8

	results := make([]any, scopes)

	var wg sync.WaitGroup
	for i := range scopes {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			err := c.CreateScope(context.Background(), func(ctx context.Context) error {
				a, err := c.Get(ctx, "scoped")
				if err != nil {
					return err
				}

				b, err := c.Get(ctx, "scoped")
				if err != nil {
					return err
				}

				assert.Same(t, a, b)
				results[i] = a

				return nil
			})
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	for i := 1; i < scopes; i++ {
		assert.NotSame(t, results[0], results[i])
	}
}

func TestScope_GetWithForeignContext(t *testing.T) {
	c := New()
	registerScopedCounter(t, c, "scoped")

	scope := c.BeginScope(context.Background())
	defer func() { _ = scope.End() }()

	a, err := scope.Get(context.Background(), "scoped")
	require.NoError(t, err)

	b, err := scope.Get(nil, "scoped") //nolint:staticcheck // nil falls back to the scope context
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestScope_ScopesOfOtherContainers(t *testing.T) {
	c1 := New()
	c2 := New()
	registerScopedCounter(t, c2, "scoped")

	scope := c1.BeginScope(context.Background())
	defer func() { _ = scope.End() }()

	_, err := c2.Get(scope.Context(), "scoped")
	assert.ErrorIs(t, err, ErrNoActiveScope)
	assert.Same(t, scope, ScopeFromContext(scope.Context()))
}

func TestScope_Metadata(t *testing.T) {
	c := New()

	scope := c.BeginScope(context.Background())
	defer func() { _ = scope.End() }()

	_, ok := scope.Metadata("request_id")
	assert.False(t, ok)

	scope.SetMetadata("request_id", "abc")

	v, ok := scope.Metadata("request_id")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.NotEmpty(t, scope.ID())
	assert.Same(t, c, scope.Container())
}
