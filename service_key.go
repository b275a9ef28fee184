package injector

import "context"

// Key provides type-safe service identification.
// Use NewKey or KeyOf to create typed keys for your services.
type Key[T any] struct {
	id ServiceID
}

// NewKey creates a new typed service key.
// The type parameter T ensures type safety when registering and resolving services.
//
// Example:
//
//	var ServiceAKey = NewKey[ServiceA]("demo.service_a")
func NewKey[T any](id ServiceID) Key[T] {
	return Key[T]{id: id}
}

// KeyOf returns the key whose id is TypeID[T]().
func KeyOf[T any]() Key[T] {
	return Key[T]{id: TypeID[T]()}
}

// ID returns the service id of the key.
func (k Key[T]) ID() ServiceID {
	return k.id
}

// String implements fmt.Stringer.
func (k Key[T]) String() string {
	return string(k.id)
}

// RegisterKey registers a typed manual factory under the key.
//
// Example:
//
//	RegisterKey(c, ServiceAKey, func(ctx context.Context) (ServiceA, error) {
//	    return serviceADebug{}, nil
//	}, Singleton())
func RegisterKey[T any](c *Container, key Key[T], factory func(ctx context.Context) (T, error), opts ...RegisterOption) error {
	return c.Register(key.id, FuncOf(factory), opts...)
}

// ResolveKey resolves a service using a typed service key.
func ResolveKey[T any](ctx context.Context, r Resolver, key Key[T]) (T, error) {
	return Resolve[T](ctx, r, key.id)
}

// MustKey resolves a service using a typed service key and panics on error.
func MustKey[T any](ctx context.Context, r Resolver, key Key[T]) T {
	result, err := ResolveKey(ctx, r, key)
	if err != nil {
		panic(err)
	}

	return result
}

// HasKey checks if a service is registered using a typed service key.
func HasKey[T any](r Resolver, key Key[T]) bool {
	return r.Has(key.id)
}

// InspectKey returns diagnostic information about a service using a typed service key.
func InspectKey[T any](c *Container, key Key[T]) ServiceInfo {
	return c.Inspect(key.id)
}
