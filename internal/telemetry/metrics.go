// Package telemetry holds the Prometheus collectors exported on /metrics
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "recibo"

// HTTPMetrics tracks request counts, latency and in-flight requests
type HTTPMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// NewHTTPMetrics creates and registers HTTP metrics on reg
func NewHTTPMetrics(reg prometheus.Registerer, namespace string) *HTTPMetrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	factory := promauto.With(reg)

	return &HTTPMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
	}
}

// ReceiptMetrics holds business metrics for the counter
type ReceiptMetrics struct {
	ReceiptsCreated     *prometheus.CounterVec
	ReceiptValue        prometheus.Histogram
	ReceiptItemCount    prometheus.Histogram
	ReceiptsLive        prometheus.Gauge
	CreateFailures      *prometheus.CounterVec
	ReceiptsCleared     prometheus.Counter
	ReceiptsPrinted     *prometheus.CounterVec
	NotificationsFailed prometheus.Counter
}

// NewReceiptMetrics creates and registers receipt metrics on reg
func NewReceiptMetrics(reg prometheus.Registerer, namespace string) *ReceiptMetrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	factory := promauto.With(reg)
	subsystem := "receipts"

	return &ReceiptMetrics{
		ReceiptsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "created_total",
				Help:      "Total receipts created",
			},
			[]string{"service_type"},
		),
		ReceiptValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "value_cents",
				Help:      "Receipt total in cents",
				Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
		),
		ReceiptItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "item_count",
				Help:      "Number of cart lines per receipt",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		ReceiptsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "live",
				Help:      "Receipts currently holding a call number",
			},
		),
		CreateFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "create_failures_total",
				Help:      "Receipt creations rejected, by reason",
			},
			[]string{"reason"}, // reason: empty_cart, validation, exhausted, overflow, store
		),
		ReceiptsCleared: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cleared_total",
				Help:      "Number of times all receipts were cleared",
			},
		),
		ReceiptsPrinted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "printed_total",
				Help:      "Tickets sent to the printer, by result",
			},
			[]string{"result"},
		),
		NotificationsFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_failed_total",
				Help:      "Receipt events that could not be published",
			},
		),
	}
}

// Metrics bundles every collector the service exports
type Metrics struct {
	Registry *prometheus.Registry
	HTTP     *HTTPMetrics
	Receipts *ReceiptMetrics
}

// New creates a fresh registry with Go and process collectors plus the app metrics
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry: reg,
		HTTP:     NewHTTPMetrics(reg, namespace),
		Receipts: NewReceiptMetrics(reg, namespace),
	}
}
