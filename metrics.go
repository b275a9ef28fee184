package injector

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes reported by MetricsMiddleware.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// MetricsMiddleware records resolution and build metrics with Prometheus.
type MetricsMiddleware struct {
	Resolutions   *prometheus.CounterVec
	Builds        *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
}

// NewMetricsMiddleware creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetricsMiddleware(reg prometheus.Registerer) *MetricsMiddleware {
	m := &MetricsMiddleware{
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "injector_resolutions_total",
				Help: "Total number of service resolutions",
			},
			[]string{"service", "outcome"},
		),
		Builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "injector_builds_total",
				Help: "Total number of factory invocations",
			},
			[]string{"service", "lifestyle"},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "injector_build_duration_seconds",
				Help:    "Time spent in service factories",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"service"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Resolutions, m.Builds, m.BuildDuration)
	}

	return m
}

// BeforeResolve implements Middleware.
func (m *MetricsMiddleware) BeforeResolve(context.Context, ServiceID) error {
	return nil
}

// AfterResolve implements Middleware.
func (m *MetricsMiddleware) AfterResolve(_ context.Context, id ServiceID, _ any, err error) error {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}

	m.Resolutions.WithLabelValues(string(id), outcome).Inc()

	return nil
}

// BeforeBuild implements Middleware.
func (m *MetricsMiddleware) BeforeBuild(context.Context, ServiceID, Lifestyle) error {
	return nil
}

// AfterBuild implements Middleware.
func (m *MetricsMiddleware) AfterBuild(_ context.Context, id ServiceID, lifestyle Lifestyle, elapsed time.Duration, _ error) error {
	m.Builds.WithLabelValues(string(id), lifestyle.String()).Inc()
	m.BuildDuration.WithLabelValues(string(id)).Observe(elapsed.Seconds())

	return nil
}
