// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"strconv"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "payments"

// Metrics implements application.Metrics and carries the HTTP and worker instruments.
type Metrics struct {
	ordersCreated      *prometheus.CounterVec
	capturesTotal      *prometheus.CounterVec
	sideEffectsTotal   *prometheus.CounterVec
	webhooksTotal      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	workerRuns         *prometheus.CounterVec
	workerOrdersSwept  *prometheus.CounterVec
	serializerInflight prometheus.Gauge
}

var _ application.Metrics = (*Metrics)(nil)

// New registers every instrument on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ordersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Orders created, by order type.",
			},
			[]string{"order_type"},
		),
		capturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "captures_total",
				Help:      "Capture attempts by trigger and outcome.",
			},
			[]string{"source", "outcome"},
		),
		sideEffectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "side_effects_total",
				Help:      "Membership side effects applied after a completed capture.",
			},
			[]string{"order_type", "result"},
		),
		webhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_total",
				Help:      "Provider webhook deliveries by event type and outcome.",
			},
			[]string{"event_type", "outcome"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"method", "route"},
		),
		workerRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_runs_total",
				Help:      "Background sweeps by worker and result.",
			},
			[]string{"worker", "result"},
		),
		workerOrdersSwept: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_orders_total",
				Help:      "Orders handled by background sweeps.",
			},
			[]string{"worker", "result"},
		),
		serializerInflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "capture_serializer_inflight",
				Help:      "Captures currently running or queued under an order lock.",
			},
		),
	}
}

func (m *Metrics) OrderCreated(orderType domain.OrderType) {
	m.ordersCreated.WithLabelValues(string(orderType)).Inc()
}

func (m *Metrics) CaptureFinished(source application.CaptureSource, outcome string) {
	m.capturesTotal.WithLabelValues(string(source), outcome).Inc()
}

func (m *Metrics) SideEffectApplied(orderType domain.OrderType, err error) {
	result := "applied"
	if err != nil {
		result = "error"
	}
	m.sideEffectsTotal.WithLabelValues(string(orderType), result).Inc()
}

func (m *Metrics) WebhookReceived(eventType string, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhooksTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) WorkerRun(worker string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.workerRuns.WithLabelValues(worker, result).Inc()
}

func (m *Metrics) WorkerOrders(worker, result string, n int) {
	if n > 0 {
		m.workerOrdersSwept.WithLabelValues(worker, result).Add(float64(n))
	}
}

func (m *Metrics) SerializerEnter() { m.serializerInflight.Inc() }
func (m *Metrics) SerializerLeave() { m.serializerInflight.Dec() }
