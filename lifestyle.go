package injector

import (
	"fmt"
	"strings"
)

// Lifestyle controls how instances of a service are cached.
type Lifestyle int

const (
	// LifestylePerRequest builds a new instance on every resolution.
	LifestylePerRequest Lifestyle = iota
	// LifestyleScoped shares one instance per scope.
	LifestyleScoped
	// LifestyleSingleton shares one instance per container. Scoped
	// dependencies are taken from the scope active when the singleton is
	// built and stay captured after that scope ends and disposes them; the
	// container logs a warning when this happens.
	LifestyleSingleton
)

// String returns the canonical lifestyle name.
func (l Lifestyle) String() string {
	switch l {
	case LifestylePerRequest:
		return "PerRequest"
	case LifestyleScoped:
		return "Scoped"
	case LifestyleSingleton:
		return "Singleton"
	default:
		return fmt.Sprintf("Lifestyle(%d)", int(l))
	}
}

// Valid reports whether l is one of the declared lifestyles.
func (l Lifestyle) Valid() bool {
	return l >= LifestylePerRequest && l <= LifestyleSingleton
}

// ParseLifestyle parses a lifestyle name. Matching ignores case, dashes and
// underscores; "transient" and "request" are accepted as aliases.
func ParseLifestyle(s string) (Lifestyle, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))

	switch norm {
	case "perrequest", "transient", "":
		return LifestylePerRequest, nil
	case "scoped", "request":
		return LifestyleScoped, nil
	case "singleton":
		return LifestyleSingleton, nil
	default:
		return 0, fmt.Errorf("unknown lifestyle %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifestyle) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid lifestyle %d", int(l))
	}

	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifestyle) UnmarshalText(text []byte) error {
	parsed, err := ParseLifestyle(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}
