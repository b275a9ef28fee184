package demo

import (
	"context"
	"fmt"

	"github.com/xraph/injector"
)

// Service ids bound by the bundled profiles.
const (
	IDServiceA injector.ServiceID = "demo.ServiceA"
	IDServiceB injector.ServiceID = "demo.ServiceB"
	IDServiceC injector.ServiceID = "demo.ServiceC"
)

type ServiceA interface {
	DoA() string
}

type ServiceB interface {
	DoB() string
}

type ServiceC interface {
	DoC() string
}

type serviceADebug struct {
	label string
}

func NewServiceADebug() ServiceA { return &serviceADebug{label: "A debug"} }

func (s *serviceADebug) DoA() string { return s.label }

type serviceARelease struct {
	label string
}

func NewServiceARelease() ServiceA { return &serviceARelease{label: "A release"} }

func (s *serviceARelease) DoA() string { return s.label }

// ServiceBDeps is the input of the debug B constructor.
type ServiceBDeps struct {
	injector.In

	A ServiceA `service:"demo.ServiceA" optional:"false"`
}

type serviceBDebug struct {
	a ServiceA
}

func NewServiceBDebug(deps ServiceBDeps) ServiceB {
	return &serviceBDebug{a: deps.A}
}

func (s *serviceBDebug) DoB() string { return "B debug uses " + s.a.DoA() }

type serviceBRelease struct {
	a ServiceA
}

// NewServiceBRelease takes A positionally; the profile declares its id.
func NewServiceBRelease(a ServiceA) ServiceB {
	return &serviceBRelease{a: a}
}

func (s *serviceBRelease) DoB() string { return "B release uses " + s.a.DoA() }

type serviceCDebug struct {
	b ServiceB
}

func NewServiceCDebug(b ServiceB) (ServiceC, error) {
	if b == nil {
		return nil, fmt.Errorf("service c: nil dependency")
	}

	return &serviceCDebug{b: b}, nil
}

func (s *serviceCDebug) DoC() string { return "C debug uses " + s.b.DoB() }

type serviceCRelease struct {
	b ServiceB
}

func NewServiceCRelease(b ServiceB) ServiceC {
	return &serviceCRelease{b: b}
}

func (s *serviceCRelease) DoC() string { return "C release uses " + s.b.DoB() }

// newServiceCReleaseFactory is a manual factory: it resolves B itself
// through r instead of letting the container supply it.
func newServiceCReleaseFactory(r injector.Resolver) injector.Factory {
	return injector.FuncOf(func(ctx context.Context) (ServiceC, error) {
		b, err := injector.Resolve[ServiceB](ctx, r, IDServiceB)
		if err != nil {
			return nil, err
		}

		return NewServiceCRelease(b), nil
	})
}
