package injector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxDepth is the default limit on the length of a resolution chain.
const DefaultMaxDepth = 256

// Container maps service ids to registrations, caches singletons and
// resolves constructor dependencies.
type Container struct {
	services   map[ServiceID]*registration
	singletons *instanceStore
	locks      *lockGraph
	middleware *middlewareChain
	logger     *zap.Logger
	maxDepth   int
	closed     bool
	mu         sync.RWMutex
}

// registration holds service registration details. It is immutable once
// stored; Register replaces the whole record.
type registration struct {
	id        ServiceID
	factory   Factory
	lifestyle Lifestyle
	params    Params
	deps      []ServiceID
	metadata  map[string]string
}

// New creates an empty container.
func New(opts ...Option) *Container {
	locks := newLockGraph()

	c := &Container{
		services:   make(map[ServiceID]*registration),
		singletons: newInstanceStore(locks),
		locks:      locks,
		middleware: newMiddlewareChain(),
		logger:     zap.NewNop(),
		maxDepth:   DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Register binds id to factory, replacing any earlier registration of id.
// Only the shape of the registration is checked here; missing dependencies
// surface when the service is resolved.
//
// A singleton already built under id stays cached after re-registration.
func (c *Container) Register(id ServiceID, factory Factory, opts ...RegisterOption) error {
	if id == "" {
		return NewError(CodeInvalidFactory, "service id cannot be empty", nil)
	}

	if factory == nil {
		return InvalidFactoryError(id, "factory cannot be nil")
	}

	if err := factory.validate(); err != nil {
		return InvalidFactoryError(id, err.Error())
	}

	cfg := mergeOptions(opts)

	if !cfg.lifestyle.Valid() {
		return InvalidFactoryError(id, "unknown lifestyle "+cfg.lifestyle.String())
	}

	if len(cfg.params) > 0 && factory.Kind() != kindConstructor {
		return InvalidFactoryError(id, "fixed parameters require a constructor factory")
	}

	reg := &registration{
		id:        id,
		factory:   factory,
		lifestyle: cfg.lifestyle,
		params:    cfg.params,
		deps:      cfg.deps,
		metadata:  cfg.metadata,
	}

	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return ErrContainerClosed
	}

	_, replaced := c.services[id]
	c.services[id] = reg
	c.mu.Unlock()

	c.logger.Debug("service registered",
		zap.String("service", string(id)),
		zap.Stringer("lifestyle", reg.lifestyle),
		zap.String("factory", factory.Kind()),
		zap.Bool("replaced", replaced),
	)

	return nil
}

// Get returns an instance of id according to its lifestyle.
//
// Scoped services need a scope in ctx (see BeginScope). Factories receive a
// context derived from ctx; resolving through it keeps the scope and lets
// the container detect dependency cycles.
func (c *Container) Get(ctx context.Context, id ServiceID) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.middleware.beforeResolve(ctx, id); err != nil {
		return nil, err
	}

	instance, err := c.resolve(ctx, id)

	if mwErr := c.middleware.afterResolve(ctx, id, instance, err); mwErr != nil {
		return nil, mwErr
	}

	return instance, err
}

// resolve performs the actual resolution without middleware.
func (c *Container) resolve(ctx context.Context, id ServiceID) (any, error) {
	c.mu.RLock()
	reg, exists := c.services[id]
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return nil, ErrContainerClosed
	}

	if !exists {
		return nil, UnregisteredServiceError(id)
	}

	inflight := chainFrom(ctx)

	if inflight.contains(id) {
		path := append(inflight.path(), id)
		c.logger.Warn("dependency cycle detected", zap.Any("cycle", path))

		return nil, DependencyCycleError(path)
	}

	if inflight.len() >= c.maxDepth {
		c.logger.Warn("resolution depth exceeded",
			zap.String("service", string(id)),
			zap.Int("max_depth", c.maxDepth),
		)

		return nil, DepthExceededError(id, c.maxDepth)
	}

	ch := inflight.push(id, reg.lifestyle)
	buildCtx := withChain(ctx, ch)

	switch reg.lifestyle {
	case LifestyleSingleton:
		instance, err := c.singletons.getOrBuild(ch, id, func() (any, error) {
			return c.build(buildCtx, reg)
		})
		if errors.Is(err, errStoreDrained) {
			return nil, discardLate(ErrContainerClosed, id, instance)
		}

		return instance, err

	case LifestyleScoped:
		scope := c.ScopeFrom(ctx)
		if scope == nil {
			return nil, NoActiveScopeError(id)
		}

		if owner, ok := inflight.singleton(); ok {
			c.logger.Warn("scoped service captured by singleton",
				zap.String("service", string(id)),
				zap.String("singleton", string(owner)),
				zap.String("scope", scope.ID()),
			)
		}

		return scope.getOrBuild(ch, id, func() (any, error) {
			return c.build(buildCtx, reg)
		})

	default:
		return c.build(buildCtx, reg)
	}
}

// build invokes the factory of reg. Factory errors are returned unmodified.
func (c *Container) build(ctx context.Context, reg *registration) (any, error) {
	if err := c.middleware.beforeBuild(ctx, reg.id, reg.lifestyle); err != nil {
		return nil, err
	}

	start := time.Now()
	instance, err := reg.factory.build(ctx, c, reg)
	elapsed := time.Since(start)

	if mwErr := c.middleware.afterBuild(ctx, reg.id, reg.lifestyle, elapsed, err); mwErr != nil {
		return nil, mwErr
	}

	if err != nil {
		c.logger.Debug("service build failed",
			zap.String("service", string(reg.id)),
			zap.Error(err),
		)

		return nil, err
	}

	c.logger.Debug("service built",
		zap.String("service", string(reg.id)),
		zap.Stringer("lifestyle", reg.lifestyle),
		zap.Duration("elapsed", elapsed),
	)

	return instance, nil
}

// Use adds middleware to the container.
// Middleware is called in the order they are added.
func (c *Container) Use(middleware Middleware) {
	c.middleware.add(middleware)
}

// Has checks if a service is registered.
func (c *Container) Has(id ServiceID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.services[id]

	return exists
}

// Services returns all registered ids, sorted.
func (c *Container) Services() []ServiceID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sortedIDsLocked()
}

// Inspect returns diagnostic information about a service.
func (c *Container) Inspect(id ServiceID) ServiceInfo {
	c.mu.RLock()
	reg, exists := c.services[id]
	c.mu.RUnlock()

	if !exists {
		return ServiceInfo{ID: id}
	}

	params := make([]string, 0, len(reg.params))
	for name := range reg.params {
		params = append(params, name)
	}

	sort.Strings(params)

	metadata := make(map[string]string, len(reg.metadata))
	for k, v := range reg.metadata {
		metadata[k] = v
	}

	return ServiceInfo{
		ID:           id,
		Registered:   true,
		Lifestyle:    reg.lifestyle,
		Factory:      reg.factory.Kind(),
		Dependencies: reg.factory.dependencies(reg),
		Params:       params,
		Built:        reg.lifestyle == LifestyleSingleton && c.singletons.has(id),
		Metadata:     metadata,
	}
}

// Validate checks the registered dependency graph for cycles without
// building anything. Edges come from DependsOn declarations and from
// constructor inputs whose ids are registered.
func (c *Container) Validate() error {
	c.mu.RLock()

	graph := NewDependencyGraph()
	for _, id := range c.sortedIDsLocked() {
		reg := c.services[id]

		var deps []ServiceID

		for _, dep := range reg.factory.dependencies(reg) {
			if _, ok := c.services[dep]; ok {
				deps = append(deps, dep)
			}
		}

		graph.AddNode(id, deps)
	}

	c.mu.RUnlock()

	_, err := graph.TopologicalSort()

	return err
}

// Close disposes built singletons in reverse build order. Instances that
// implement Disposable or io.Closer are released; all errors are joined.
// The container rejects registrations and resolutions afterwards.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	c.mu.Unlock()

	errs := disposeAll(c.singletons.drain())

	c.logger.Debug("container closed", zap.Int("errors", len(errs)))

	return errors.Join(errs...)
}

func (c *Container) sortedIDsLocked() []ServiceID {
	ids := make([]ServiceID, 0, len(c.services))
	for id := range c.services {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// ServiceInfo contains diagnostic information.
type ServiceInfo struct {
	ID           ServiceID
	Registered   bool
	Lifestyle    Lifestyle
	Factory      string
	Dependencies []ServiceID
	Params       []string
	Built        bool
	Metadata     map[string]string
}
