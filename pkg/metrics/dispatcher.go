package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatcherMetrics records outbox delivery outcomes.
type DispatcherMetrics struct {
	duration     *prometheus.HistogramVec
	delivered    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
}

// NewDispatcherMetrics registers the dispatcher metrics on the provided registerer.
func NewDispatcherMetrics(reg prometheus.Registerer) *DispatcherMetrics {
	if reg == nil {
		return &DispatcherMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_delivery_duration_seconds",
		Help:    "Duration of sync API deliveries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_delivered_total",
		Help: "Events delivered to the sync API.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_failed_total",
		Help: "Delivery attempts that failed and will be retried.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_dead_lettered_total",
		Help: "Events moved to the DLQ after exhausting attempts.",
	}, []string{"event_type"})
	reg.MustRegister(duration, delivered, failed, deadLettered)
	return &DispatcherMetrics{
		duration:     duration,
		delivered:    delivered,
		failed:       failed,
		deadLettered: deadLettered,
	}
}

// ObserveDuration records how long a delivery took.
func (d *DispatcherMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncDelivered increments the delivered counter.
func (d *DispatcherMetrics) IncDelivered(eventType string) {
	if d == nil || d.delivered == nil {
		return
	}
	d.delivered.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed increments the retryable-failure counter.
func (d *DispatcherMetrics) IncFailed(eventType string) {
	if d == nil || d.failed == nil {
		return
	}
	d.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDeadLettered increments the DLQ counter.
func (d *DispatcherMetrics) IncDeadLettered(eventType string) {
	if d == nil || d.deadLettered == nil {
		return
	}
	d.deadLettered.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
