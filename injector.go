// Package injector provides a dependency-injection container with three
// lifestyles (per-request, scoped and singleton), context-carried scopes,
// constructor injection and manual factory overrides.
//
// A minimal program registers services and resolves them:
//
//	c := injector.New()
//	_ = c.Register(injector.TypeID[Clock](), injector.Value(systemClock{}), injector.Singleton())
//	_ = c.Register("report", injector.Constructor(NewReport), injector.Scoped())
//
//	err := c.CreateScope(ctx, func(ctx context.Context) error {
//	    report, err := injector.Resolve[*Report](ctx, c, "report")
//	    ...
//	})
package injector

import (
	"context"
	"reflect"
)

// ServiceID identifies an abstract service in the registry.
type ServiceID string

// Resolver resolves services. Both *Container and *Scope implement it.
type Resolver interface {
	Get(ctx context.Context, id ServiceID) (any, error)
	Has(id ServiceID) bool
}

// TypeID returns the canonical id of the type T.
// For an interface type this names the contract itself, so
// TypeID[Logger]() is the same for every implementation.
func TypeID[T any]() ServiceID {
	return typeID(typeOf[T]())
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// typeID builds the id of a reflected type.
func typeID(t reflect.Type) ServiceID {
	if t.Name() != "" && t.PkgPath() != "" {
		return ServiceID(t.PkgPath() + "." + t.Name())
	}

	return ServiceID(t.String())
}
