package injector

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// LoggingMiddleware logs every build at debug level and every failed
// resolution at the level matching its cause.
type LoggingMiddleware struct {
	logger *zap.Logger
}

// NewLoggingMiddleware returns middleware that writes to logger.
func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LoggingMiddleware{logger: logger.Named("injector")}
}

// BeforeResolve implements Middleware.
func (m *LoggingMiddleware) BeforeResolve(context.Context, ServiceID) error {
	return nil
}

// AfterResolve implements Middleware.
func (m *LoggingMiddleware) AfterResolve(ctx context.Context, id ServiceID, _ any, err error) error {
	if err == nil {
		return nil
	}

	fields := append(m.fields(ctx, id), zap.Error(err))

	if errors.Is(err, ErrUnregisteredService) || errors.Is(err, ErrNoActiveScope) {
		m.logger.Warn("resolve failed", fields...)
	} else {
		m.logger.Error("resolve failed", fields...)
	}

	return nil
}

// BeforeBuild implements Middleware.
func (m *LoggingMiddleware) BeforeBuild(context.Context, ServiceID, Lifestyle) error {
	return nil
}

// AfterBuild implements Middleware.
func (m *LoggingMiddleware) AfterBuild(ctx context.Context, id ServiceID, lifestyle Lifestyle, elapsed time.Duration, err error) error {
	fields := append(m.fields(ctx, id),
		zap.Stringer("lifestyle", lifestyle),
		zap.Duration("duration", elapsed),
	)

	if err != nil {
		m.logger.Debug("build failed", append(fields, zap.Error(err))...)

		return nil
	}

	m.logger.Debug("built", fields...)

	return nil
}

func (m *LoggingMiddleware) fields(ctx context.Context, id ServiceID) []zap.Field {
	fields := []zap.Field{zap.String("service", string(id))}

	if scope := ScopeFromContext(ctx); scope != nil {
		fields = append(fields, zap.String("scope", scope.ID()))
	}

	return fields
}
