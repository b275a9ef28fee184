// Package injecthttp opens one injector scope per HTTP request.
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(injecthttp.Middleware(c))
//	r.Get("/report", func(w http.ResponseWriter, r *http.Request) {
//	    report, err := injecthttp.Resolve[*Report](r, "report")
//	    ...
//	})
package injecthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xraph/injector"
)

// MetadataRequestID is the scope metadata key holding the chi request id.
const MetadataRequestID = "request_id"

// Option configures Middleware.
type Option func(*config)

type config struct {
	logger     *zap.Logger
	onEndError func(r *http.Request, err error)
}

// WithLogger logs scope cleanup failures to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEndErrorHandler is called when ending a request scope fails, after the
// response has been written.
func WithEndErrorHandler(fn func(r *http.Request, err error)) Option {
	return func(c *config) {
		c.onEndError = fn
	}
}

// Middleware returns HTTP middleware that runs every request inside a new
// scope of c. The scope ends after the handler returns, also when it panics.
func Middleware(c *injector.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := c.BeginScope(r.Context())

			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				scope.SetMetadata(MetadataRequestID, reqID)
			}

			defer func() {
				if err := scope.End(); err != nil {
					cfg.logger.Error("request scope cleanup failed",
						zap.String("scope", scope.ID()),
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)

					if cfg.onEndError != nil {
						cfg.onEndError(r, err)
					}
				}
			}()

			next.ServeHTTP(w, r.WithContext(scope.Context()))
		})
	}
}

// FromRequest returns the innermost scope of the request, or nil when the
// request did not pass through Middleware.
func FromRequest(r *http.Request) *injector.Scope {
	return injector.ScopeFromContext(r.Context())
}

// Resolve resolves id with the request scope active.
func Resolve[T any](r *http.Request, id injector.ServiceID) (T, error) {
	scope := FromRequest(r)
	if scope == nil {
		var zero T

		return zero, injector.NoActiveScopeError(id)
	}

	return injector.Resolve[T](r.Context(), scope, id)
}
