package injector

import (
	"context"
	"sync"
	"time"
)

// Middleware provides hooks for intercepting container operations.
// Middleware can be used for logging, metrics, tracing, testing, etc.
type Middleware interface {
	// BeforeResolve is called before resolving a service.
	// Return error to abort resolution.
	BeforeResolve(ctx context.Context, id ServiceID) error

	// AfterResolve is called after resolving a service.
	// Called even if resolution failed (instance and err may both be set).
	AfterResolve(ctx context.Context, id ServiceID, instance any, err error) error

	// BeforeBuild is called before a factory runs. Cache hits of singleton
	// and scoped services do not reach it.
	// Return error to abort the build.
	BeforeBuild(ctx context.Context, id ServiceID, lifestyle Lifestyle) error

	// AfterBuild is called after a factory returns.
	// Called even if the build failed.
	AfterBuild(ctx context.Context, id ServiceID, lifestyle Lifestyle, elapsed time.Duration, err error) error
}

// middlewareChain manages multiple middleware.
type middlewareChain struct {
	middleware []Middleware
	mu         sync.RWMutex
}

// newMiddlewareChain creates a new middleware chain.
func newMiddlewareChain() *middlewareChain {
	return &middlewareChain{
		middleware: make([]Middleware, 0),
	}
}

// add appends middleware to the chain.
func (m *middlewareChain) add(middleware ...Middleware) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mw := range middleware {
		if mw != nil {
			m.middleware = append(m.middleware, mw)
		}
	}
}

// snapshot returns the current middleware. Use may append while a
// resolution is running.
func (m *middlewareChain) snapshot() []Middleware {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.middleware[:len(m.middleware):len(m.middleware)]
}

// beforeResolve calls BeforeResolve on all middleware.
func (m *middlewareChain) beforeResolve(ctx context.Context, id ServiceID) error {
	for _, mw := range m.snapshot() {
		if err := mw.BeforeResolve(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

// afterResolve calls AfterResolve on all middleware.
func (m *middlewareChain) afterResolve(ctx context.Context, id ServiceID, instance any, err error) error {
	for _, mw := range m.snapshot() {
		if mwErr := mw.AfterResolve(ctx, id, instance, err); mwErr != nil {
			return mwErr
		}
	}

	return nil
}

// beforeBuild calls BeforeBuild on all middleware.
func (m *middlewareChain) beforeBuild(ctx context.Context, id ServiceID, lifestyle Lifestyle) error {
	for _, mw := range m.snapshot() {
		if err := mw.BeforeBuild(ctx, id, lifestyle); err != nil {
			return err
		}
	}

	return nil
}

// afterBuild calls AfterBuild on all middleware.
func (m *middlewareChain) afterBuild(ctx context.Context, id ServiceID, lifestyle Lifestyle, elapsed time.Duration, err error) error {
	for _, mw := range m.snapshot() {
		if mwErr := mw.AfterBuild(ctx, id, lifestyle, elapsed, err); mwErr != nil {
			return mwErr
		}
	}

	return nil
}

// FuncMiddleware wraps functions as Middleware.
type FuncMiddleware struct {
	BeforeResolveFunc func(ctx context.Context, id ServiceID) error
	AfterResolveFunc  func(ctx context.Context, id ServiceID, instance any, err error) error
	BeforeBuildFunc   func(ctx context.Context, id ServiceID, lifestyle Lifestyle) error
	AfterBuildFunc    func(ctx context.Context, id ServiceID, lifestyle Lifestyle, elapsed time.Duration, err error) error
}

// BeforeResolve implements Middleware.
func (f *FuncMiddleware) BeforeResolve(ctx context.Context, id ServiceID) error {
	if f.BeforeResolveFunc != nil {
		return f.BeforeResolveFunc(ctx, id)
	}

	return nil
}

// AfterResolve implements Middleware.
func (f *FuncMiddleware) AfterResolve(ctx context.Context, id ServiceID, instance any, err error) error {
	if f.AfterResolveFunc != nil {
		return f.AfterResolveFunc(ctx, id, instance, err)
	}

	return nil
}

// BeforeBuild implements Middleware.
func (f *FuncMiddleware) BeforeBuild(ctx context.Context, id ServiceID, lifestyle Lifestyle) error {
	if f.BeforeBuildFunc != nil {
		return f.BeforeBuildFunc(ctx, id, lifestyle)
	}

	return nil
}

// AfterBuild implements Middleware.
func (f *FuncMiddleware) AfterBuild(ctx context.Context, id ServiceID, lifestyle Lifestyle, elapsed time.Duration, err error) error {
	if f.AfterBuildFunc != nil {
		return f.AfterBuildFunc(ctx, id, lifestyle, elapsed, err)
	}

	return nil
}
