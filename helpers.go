package injector

import (
	"context"
	"fmt"
)

// Resolve with type safety.
func Resolve[T any](ctx context.Context, r Resolver, id ServiceID) (T, error) {
	var zero T

	instance, err := r.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	// A nil instance is the zero value of any nillable T.
	if instance == nil && nillable(typeOf[T]()) {
		return zero, nil
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError(id, typeOf[T]().String(), instance)
	}

	return typed, nil
}

// Must resolves or panics - use only during startup.
func Must[T any](ctx context.Context, r Resolver, id ServiceID) T {
	instance, err := Resolve[T](ctx, r, id)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", id, err))
	}

	return instance
}

// Get resolves the service registered under TypeID[T]().
func Get[T any](ctx context.Context, r Resolver) (T, error) {
	return Resolve[T](ctx, r, TypeID[T]())
}

// MustGet resolves the service registered under TypeID[T]() or panics.
func MustGet[T any](ctx context.Context, r Resolver) T {
	return Must[T](ctx, r, TypeID[T]())
}

// Provide registers a typed manual factory under TypeID[T]().
func Provide[T any](c *Container, factory func(ctx context.Context) (T, error), opts ...RegisterOption) error {
	return c.Register(TypeID[T](), FuncOf(factory), opts...)
}

// ProvideConstructor registers a constructor under TypeID[T](). The
// constructor must return T or (T, error).
//
// Usage:
//
//	injector.ProvideConstructor[Mailer](c, NewSMTPMailer, injector.Singleton())
func ProvideConstructor[T any](c *Container, constructor any, opts ...RegisterOption) error {
	id := TypeID[T]()

	info, err := analyzeConstructor(constructor)
	if err == nil && !info.result.AssignableTo(typeOf[T]()) {
		return InvalidFactoryError(id,
			fmt.Sprintf("constructor returns %s, not assignable to %s", info.result, typeOf[T]()))
	}

	return c.Register(id, Constructor(constructor), opts...)
}

// ProvideValue registers a pre-built instance under TypeID[T]() as a
// singleton.
func ProvideValue[T any](c *Container, value T, opts ...RegisterOption) error {
	opts = append([]RegisterOption{Singleton()}, opts...)

	return c.Register(TypeID[T](), Value(value), opts...)
}
