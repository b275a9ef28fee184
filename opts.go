package injector

import "go.uber.org/zap"

// Params holds fixed constructor parameters keyed by input name.
type Params map[string]any

// RegisterOption is a configuration option for service registration.
type RegisterOption func(*registerConfig)

// registerConfig collects the options of one Register call.
type registerConfig struct {
	lifestyle Lifestyle
	params    Params
	deps      []ServiceID
	metadata  map[string]string
}

// PerRequest builds a new instance on every resolution (default).
func PerRequest() RegisterOption {
	return WithLifestyle(LifestylePerRequest)
}

// Scoped makes the service live for the duration of a scope.
func Scoped() RegisterOption {
	return WithLifestyle(LifestyleScoped)
}

// Singleton makes the service live for the lifetime of the container.
func Singleton() RegisterOption {
	return WithLifestyle(LifestyleSingleton)
}

// WithLifestyle sets the lifestyle explicitly.
func WithLifestyle(l Lifestyle) RegisterOption {
	return func(c *registerConfig) {
		c.lifestyle = l
	}
}

// WithParams adds fixed parameters. Fixed values win over auto-resolved ones.
func WithParams(params Params) RegisterOption {
	return func(c *registerConfig) {
		for k, v := range params {
			c.setParam(k, v)
		}
	}
}

// WithParam adds a single fixed parameter.
func WithParam(name string, value any) RegisterOption {
	return func(c *registerConfig) {
		c.setParam(name, value)
	}
}

// DependsOn declares the ids a constructor's positional parameters resolve to,
// in order. Declared ids also feed Validate.
func DependsOn(ids ...ServiceID) RegisterOption {
	return func(c *registerConfig) {
		c.deps = append(c.deps, ids...)
	}
}

// WithMetadata adds diagnostic metadata to the registration.
func WithMetadata(key, value string) RegisterOption {
	return func(c *registerConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]string)
		}

		c.metadata[key] = value
	}
}

func (c *registerConfig) setParam(name string, value any) {
	if c.params == nil {
		c.params = make(Params)
	}

	c.params[name] = value
}

// mergeOptions applies opts over the defaults.
func mergeOptions(opts []RegisterOption) *registerConfig {
	cfg := &registerConfig{lifestyle: LifestylePerRequest}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	return cfg
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for registration, build and scope events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxDepth limits the length of a resolution chain.
func WithMaxDepth(depth int) Option {
	return func(c *Container) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithMiddleware installs middleware at construction time.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Container) {
		for _, mw := range middleware {
			c.middleware.add(mw)
		}
	}
}
