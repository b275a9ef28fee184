// Package profile loads container configurations from YAML.
//
// A profile names, for every service id, the implementation to use and its
// lifestyle:
//
//	name: debug
//	services:
//	  - id: demo.ServiceA
//	    use: service_a.debug
//	    lifestyle: PerRequest
//	  - id: demo.ServiceB
//	    use: service_b.debug
//	    lifestyle: Scoped
//	    depends_on: [demo.ServiceA]
//
// Implementation names are looked up in a Catalog supplied by the program.
package profile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/xraph/injector"
)

var (
	// ErrUnknownImplementation is returned when a profile uses a name the
	// catalog does not contain.
	ErrUnknownImplementation = errors.New("unknown implementation")

	// ErrInvalidProfile is returned when a profile document is malformed.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile is a named set of service bindings.
type Profile struct {
	Name     string    `yaml:"name"`
	Services []Binding `yaml:"services"`
}

// Binding maps one service id to an implementation.
type Binding struct {
	ID        injector.ServiceID   `yaml:"id"`
	Use       string               `yaml:"use"`
	Lifestyle injector.Lifestyle   `yaml:"lifestyle"`
	Params    map[string]any       `yaml:"params,omitempty"`
	DependsOn []injector.ServiceID `yaml:"depends_on,omitempty"`
	Metadata  map[string]string    `yaml:"metadata,omitempty"`
}

// Catalog maps implementation names to factories.
type Catalog map[string]injector.Factory

// Names returns the implementation names, sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Load decodes a profile from r. Unknown fields are rejected.
func Load(r io.Reader) (*Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidProfile)
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// LoadFile reads a profile from path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", path, err)
	}

	return p, nil
}

func (p *Profile) validate() error {
	seen := make(map[injector.ServiceID]bool, len(p.Services))

	for i, b := range p.Services {
		if b.ID == "" {
			return fmt.Errorf("%w: service %d has no id", ErrInvalidProfile, i)
		}

		if b.Use == "" {
			return fmt.Errorf("%w: service %s has no implementation", ErrInvalidProfile, b.ID)
		}

		if seen[b.ID] {
			return fmt.Errorf("%w: service %s bound twice", ErrInvalidProfile, b.ID)
		}

		seen[b.ID] = true
	}

	return nil
}

// Apply registers every binding of p in c. It fails before registering
// anything when an implementation is missing from catalog.
func (p *Profile) Apply(c *injector.Container, catalog Catalog) error {
	regs := make([]injector.Registration, 0, len(p.Services))

	for _, b := range p.Services {
		factory, ok := catalog[b.Use]
		if !ok {
			return fmt.Errorf("%w: %q for service %s", ErrUnknownImplementation, b.Use, b.ID)
		}

		regs = append(regs, injector.Service(b.ID, factory, b.options()...))
	}

	if err := c.RegisterAll(regs...); err != nil {
		return fmt.Errorf("apply profile %s: %w", p.Name, err)
	}

	return nil
}

func (b Binding) options() []injector.RegisterOption {
	opts := []injector.RegisterOption{injector.WithLifestyle(b.Lifestyle)}

	if len(b.Params) > 0 {
		opts = append(opts, injector.WithParams(b.Params))
	}

	if len(b.DependsOn) > 0 {
		opts = append(opts, injector.DependsOn(b.DependsOn...))
	}

	keys := make([]string, 0, len(b.Metadata))
	for k := range b.Metadata {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		opts = append(opts, injector.WithMetadata(k, b.Metadata[k]))
	}

	return opts
}
