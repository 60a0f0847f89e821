// Package observability provides metrics and tracing observers for the
// dispatch engine. Both implement the server.Observer contract and can
// be combined with Multi.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the Prometheus namespace (default: mcp).
	Namespace string
	// Subsystem is the Prometheus subsystem.
	Subsystem string
	// HistogramBuckets override the default latency buckets.
	HistogramBuckets []float64
	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Metrics is a server.Observer recording dispatch activity as
// Prometheus metrics: per-method request counts and latencies, the
// in-flight gauge, outbound notification counts and cancellations.
type Metrics struct {
	registry prometheus.Registerer

	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	activeRequests     prometheus.Gauge
	notificationsTotal *prometheus.CounterVec
	cancellationsTotal prometheus.Counter
}

// NewMetrics creates and registers the dispatch metrics.
func NewMetrics(config MetricsConfig) (*Metrics, error) {
	if config.Namespace == "" {
		config.Namespace = "mcp"
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	buckets := config.HistogramBuckets
	if buckets == nil {
		buckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}
	}

	m := &Metrics{
		registry: config.Registerer,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Dispatch latency per method.",
			Buckets:     buckets,
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Dispatched requests per method and terminal status.",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_requests",
			Help:        "Requests currently being dispatched.",
			ConstLabels: config.ConstLabels,
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Outbound notifications enqueued per method.",
			ConstLabels: config.ConstLabels,
		}, []string{"method"}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cancellations_total",
			Help:        "Inbound cancellations that matched an in-flight request.",
			ConstLabels: config.ConstLabels,
		}),
	}

	collectors := []prometheus.Collector{
		m.requestDuration,
		m.requestTotal,
		m.activeRequests,
		m.notificationsTotal,
		m.cancellationsTotal,
	}
	for _, c := range collectors {
		if err := config.Registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// BeginRequest implements server.Observer.
func (m *Metrics) BeginRequest(ctx context.Context, method string) (context.Context, func(string)) {
	m.activeRequests.Inc()
	start := time.Now()
	return ctx, func(status string) {
		m.activeRequests.Dec()
		m.requestTotal.WithLabelValues(method, status).Inc()
		m.requestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
	}
}

// RecordNotification implements server.Observer.
func (m *Metrics) RecordNotification(method string) {
	m.notificationsTotal.WithLabelValues(method).Inc()
}

// RecordCancellation implements server.Observer.
func (m *Metrics) RecordCancellation(string) {
	m.cancellationsTotal.Inc()
}

// RegisterQueueDepth exposes the notification queue depth as a gauge,
// sampled on scrape. Pass the server's QueueDepth method.
func (m *Metrics) RegisterQueueDepth(depth func() int) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "mcp",
		Name:      "notification_queue_depth",
		Help:      "Notifications waiting for the stream consumer.",
	}, func() float64 { return float64(depth()) }))
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if g, ok := m.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
