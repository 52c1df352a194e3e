// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Dispatch metrics
	IntentsTotal         *prometheus.CounterVec
	HandlerFailuresTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreDurationSeconds   *prometheus.HistogramVec
	BindingsTotal          *prometheus.CounterVec
	BindingsGauge          prometheus.Gauge
	MedicineRecordsCreated prometheus.Counter

	// Delivery metrics
	DeliveriesTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Background job metrics
	JobRunsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, reply_error, received
		),
		WebhookDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medbot_webhook_duration_seconds",
				Help:    "Event dispatch duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"event_type"},
		),

		IntentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_intents_total",
				Help: "Dispatched intents by verb and source (text, postback)",
			},
			[]string{"verb", "source"},
		),
		HandlerFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_handler_failures_total",
				Help: "Reply handler failures converted to a silent drop, by verb and kind (error, panic)",
			},
			[]string{"verb", "kind"},
		),

		StoreOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_store_operations_total",
				Help: "Store operations by operation and status",
			},
			[]string{"operation", "status"}, // status: success, not_found, error
		),
		StoreDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medbot_store_duration_seconds",
				Help:    "Store operation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		BindingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_bindings_total",
				Help: "Binding upserts by outcome (created, refreshed, error)",
			},
			[]string{"outcome"},
		),
		BindingsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "medbot_bindings",
				Help: "Number of persisted chat bindings",
			},
		),
		MedicineRecordsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "medbot_medicine_records_created_total",
				Help: "Medicine records appended through the taken action",
			},
		),

		DeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_deliveries_total",
				Help: "Outbound Messaging API calls by kind (reply, push) and status",
			},
			[]string{"kind", "status"},
		),

		RateLimiterWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medbot_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for a rate limiter token",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"limiter_type"},
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_singleflight_dedup_total",
				Help: "Lookups that shared an in-flight call instead of querying the store",
			},
			[]string{"module"},
		),

		JobRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medbot_job_runs_total",
				Help: "Background job runs by job and status",
			},
			[]string{"job", "status"},
		),
	}
}

// RecordWebhook records a processed webhook event.
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordIntent records a routed intent.
func (m *Metrics) RecordIntent(verb, source string) {
	m.IntentsTotal.WithLabelValues(verb, source).Inc()
}

// RecordHandlerFailure records a handler error or panic.
func (m *Metrics) RecordHandlerFailure(verb, kind string) {
	m.HandlerFailuresTotal.WithLabelValues(verb, kind).Inc()
}

// RecordStoreOp records a store call.
func (m *Metrics) RecordStoreOp(operation, status string, duration float64) {
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreDurationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordBinding records the outcome of an EnsureBinding call.
func (m *Metrics) RecordBinding(outcome string) {
	m.BindingsTotal.WithLabelValues(outcome).Inc()
}

// SetBindingCount sets the persisted-bindings gauge.
func (m *Metrics) SetBindingCount(n int) {
	m.BindingsGauge.Set(float64(n))
}

// RecordMedicineRecord counts an appended medicine record.
func (m *Metrics) RecordMedicineRecord() {
	m.MedicineRecordsCreated.Inc()
}

// RecordDelivery records an outbound reply or push.
func (m *Metrics) RecordDelivery(kind, status string) {
	m.DeliveriesTotal.WithLabelValues(kind, status).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// RecordJobRun records a background job run.
func (m *Metrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}
