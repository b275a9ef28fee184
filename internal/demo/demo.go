// Package demo wires three layered services under two profiles and shows
// how each lifestyle shares instances.
package demo

import (
	"context"
	"embed"
	"fmt"
	"io"
	"strings"

	"github.com/xraph/injector"
	"github.com/xraph/injector/profile"
)

//go:embed profiles/*.yaml
var profilesFS embed.FS

// ProfileNames lists the bundled profiles.
var ProfileNames = []string{"debug", "release"}

// Catalog returns the implementations the bundled profiles may use. Manual
// factories resolve through r.
func Catalog(r injector.Resolver) profile.Catalog {
	return profile.Catalog{
		"service_a.debug":   injector.Constructor(NewServiceADebug),
		"service_a.release": injector.Constructor(NewServiceARelease),
		"service_b.debug":   injector.Constructor(NewServiceBDebug),
		"service_b.release": injector.Constructor(NewServiceBRelease),
		"service_c.debug":   injector.Constructor(NewServiceCDebug),
		"service_c.release": newServiceCReleaseFactory(r),
	}
}

// LoadProfile returns the bundled profile called name.
func LoadProfile(name string) (*profile.Profile, error) {
	f, err := profilesFS.Open("profiles/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(ProfileNames, ", "))
	}
	defer f.Close()

	return profile.Load(f)
}

// NewContainer builds a container configured by the bundled profile name.
func NewContainer(name string, opts ...injector.Option) (*injector.Container, error) {
	p, err := LoadProfile(name)
	if err != nil {
		return nil, err
	}

	c := injector.New(opts...)

	if err := p.Apply(c, Catalog(c)); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Report records which resolutions shared an instance.
type Report struct {
	SameA   bool
	SameB   bool
	SameC   bool
	Outputs []string
}

// Run resolves A twice outside any scope, then B and C twice inside one
// scope, and records whether the instances were shared.
func Run(ctx context.Context, c *injector.Container) (*Report, error) {
	a1, err := injector.Resolve[ServiceA](ctx, c, IDServiceA)
	if err != nil {
		return nil, err
	}

	a2, err := injector.Resolve[ServiceA](ctx, c, IDServiceA)
	if err != nil {
		return nil, err
	}

	report := &Report{SameA: a1 == a2}

	err = c.CreateScope(ctx, func(ctx context.Context) error {
		b1, err := injector.Resolve[ServiceB](ctx, c, IDServiceB)
		if err != nil {
			return err
		}

		b2, err := injector.Resolve[ServiceB](ctx, c, IDServiceB)
		if err != nil {
			return err
		}

		c1, err := injector.Resolve[ServiceC](ctx, c, IDServiceC)
		if err != nil {
			return err
		}

		c2, err := injector.Resolve[ServiceC](ctx, c, IDServiceC)
		if err != nil {
			return err
		}

		report.SameB = b1 == b2
		report.SameC = c1 == c2
		report.Outputs = []string{a1.DoA(), b1.DoB(), c1.DoC()}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// Print writes the report as the CLI shows it.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "---- New Request ----")
	fmt.Fprintf(w, "A? %t\n", r.SameA)
	fmt.Fprintf(w, "B in scope? %t\n", r.SameB)
	fmt.Fprintf(w, "C? %t\n", r.SameC)
	fmt.Fprintln(w, strings.Join(r.Outputs, " | "))
}
