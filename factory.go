package injector

import (
	"context"
	"fmt"
)

// Factory builds instances of a service. It is one of three shapes:
//   - Func: a manual factory that resolves whatever it needs itself
//   - Constructor: a function whose inputs the container resolves
//   - Value: a pre-built instance
type Factory interface {
	// Kind names the factory shape for diagnostics.
	Kind() string

	build(ctx context.Context, c *Container, reg *registration) (any, error)
	dependencies(reg *registration) []ServiceID
	validate() error
}

const (
	kindFunc        = "func"
	kindConstructor = "constructor"
	kindValue       = "value"
)

// funcFactory is a manual factory.
type funcFactory struct {
	fn func(ctx context.Context) (any, error)
}

// Func wraps a manual factory. The container supplies no dependencies; the
// function receives the resolving context and may call back into the
// container with it:
//
//	c.Register("report", injector.Func(func(ctx context.Context) (any, error) {
//	    store, err := injector.Resolve[Store](ctx, c, "store")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewReport(store), nil
//	}))
//
// Resolving through ctx keeps the active scope and the cycle guard.
func Func(fn func(ctx context.Context) (any, error)) Factory {
	if fn == nil {
		return nil
	}

	return &funcFactory{fn: fn}
}

// FuncOf is the typed form of Func.
func FuncOf[T any](fn func(ctx context.Context) (T, error)) Factory {
	if fn == nil {
		return nil
	}

	return &funcFactory{fn: func(ctx context.Context) (any, error) {
		return fn(ctx)
	}}
}

func (f *funcFactory) Kind() string { return kindFunc }

func (f *funcFactory) build(ctx context.Context, _ *Container, _ *registration) (any, error) {
	return f.fn(ctx)
}

func (f *funcFactory) dependencies(reg *registration) []ServiceID {
	return reg.deps
}

func (f *funcFactory) validate() error { return nil }

// valueFactory returns a fixed instance.
type valueFactory struct {
	value any
}

// Value wraps a pre-built instance. Under PerRequest every resolution still
// returns this same value.
func Value(v any) Factory {
	return &valueFactory{value: v}
}

func (f *valueFactory) Kind() string { return kindValue }

func (f *valueFactory) build(context.Context, *Container, *registration) (any, error) {
	return f.value, nil
}

func (f *valueFactory) dependencies(*registration) []ServiceID { return nil }

func (f *valueFactory) validate() error { return nil }

// constructorFactory is a constructible function analysed with reflection.
type constructorFactory struct {
	info *constructorInfo
	err  error
}

// Constructor wraps a constructor function. Its inputs are resolved from the
// container at build time:
//   - context.Context receives the resolving context
//   - a struct embedding In is filled field by field (see In)
//   - any other parameter resolves the id declared with DependsOn at its
//     position, or the TypeID of its type
//
// The function must return T or (T, error). Shape errors are reported by
// Register.
func Constructor(fn any) Factory {
	info, err := analyzeConstructor(fn)

	return &constructorFactory{info: info, err: err}
}

func (f *constructorFactory) Kind() string { return kindConstructor }

func (f *constructorFactory) validate() error {
	if f.err != nil {
		return fmt.Errorf("constructor: %w", f.err)
	}

	return nil
}

func (f *constructorFactory) build(ctx context.Context, c *Container, reg *registration) (any, error) {
	return f.info.call(ctx, c, reg)
}

func (f *constructorFactory) dependencies(reg *registration) []ServiceID {
	return f.info.dependencies(reg)
}
