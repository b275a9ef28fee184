package injector

import "fmt"

// Registration holds configuration for a service to be registered.
type Registration struct {
	ID      ServiceID
	Factory Factory
	Options []RegisterOption
}

// Service creates a Registration for batch registration.
//
// Example:
//
//	injector.RegisterAll(c,
//	    injector.Service("db", injector.Constructor(NewDatabase), injector.Singleton()),
//	    injector.Service("cache", injector.Constructor(NewCache), injector.Singleton()),
//	)
func Service(id ServiceID, factory Factory, opts ...RegisterOption) Registration {
	return Registration{
		ID:      id,
		Factory: factory,
		Options: opts,
	}
}

// RegisterAll registers multiple services in a single call.
// It stops at the first failing registration; services before it stay
// registered.
func (c *Container) RegisterAll(services ...Registration) error {
	for i, svc := range services {
		if err := c.Register(svc.ID, svc.Factory, svc.Options...); err != nil {
			return fmt.Errorf("registration %d: %w", i, err)
		}
	}

	return nil
}

// RegisterAll is the function form of (*Container).RegisterAll.
func RegisterAll(c *Container, services ...Registration) error {
	return c.RegisterAll(services...)
}
