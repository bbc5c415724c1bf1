// Package telemetry exposes Prometheus metrics for the HTTP surface and the
// scoring and traversal engines. Each Provider owns its registry so tests
// can create as many as they need.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultSizeBuckets = []float64{
	100, 1_000, 10_000, 100_000, 1_000_000,
}

// Provider holds every metric the service exports.
type Provider struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeRequests prometheus.Gauge
	requestSize    prometheus.Histogram

	calculations *prometheus.CounterVec
	traversals   *prometheus.CounterVec

	dbPoolActive prometheus.Gauge
	dbPoolIdle   prometheus.Gauge
}

// NewProvider builds a Provider whose metric names are prefixed with
// namespace. Go runtime and process collectors are registered alongside.
func NewProvider(namespace string) *Provider {
	p := &Provider{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Requests currently being served",
		}),
		requestSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "Request body size from Content-Length",
			Buckets:   defaultSizeBuckets,
		}),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Successful calculator runs by result severity",
		}, []string{"calculator", "severity"}),
		traversals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traversal_steps_total",
			Help:      "Algorithm traversal steps by outcome",
		}, []string{"algorithm", "outcome"}),
		dbPoolActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_active_connections",
			Help:      "Acquired Postgres connections",
		}),
		dbPoolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_idle_connections",
			Help:      "Idle Postgres connections",
		}),
	}

	p.registry.MustRegister(
		p.httpRequests,
		p.httpDuration,
		p.activeRequests,
		p.requestSize,
		p.calculations,
		p.traversals,
		p.dbPoolActive,
		p.dbPoolIdle,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry returns the provider's registry.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveCalculation counts one calculator run. Results without a severity
// are labelled "none".
func (p *Provider) ObserveCalculation(calculatorID, severity string) {
	if severity == "" {
		severity = "none"
	}
	p.calculations.WithLabelValues(calculatorID, severity).Inc()
}

// ObserveTraversal counts one traversal step.
func (p *Provider) ObserveTraversal(algorithmID, outcome string) {
	p.traversals.WithLabelValues(algorithmID, outcome).Inc()
}

// SetDBPool records Postgres pool occupancy.
func (p *Provider) SetDBPool(active, idle int32) {
	p.dbPoolActive.Set(float64(active))
	p.dbPoolIdle.Set(float64(idle))
}

// MetricsMiddleware records request counts, latency and body size. Routes
// are labelled by their echo pattern to keep cardinality bounded.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.activeRequests.Inc()
			defer p.activeRequests.Dec()

			start := time.Now()
			req := c.Request()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			p.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
			p.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
			if req.ContentLength > 0 {
				p.requestSize.Observe(float64(req.ContentLength))
			}
			return err
		}
	}
}

// PrometheusHandler serves the registry in the Prometheus text format.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
