package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/events"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ams_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ams_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	domainEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ams_domain_events_total",
		Help: "Domain events published, by type",
	}, []string{"type"})

	leaveDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ams_leave_decisions_total",
		Help: "Leave decisions, by resulting status",
	}, []string{"status"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveEvent counts one domain event.
func ObserveEvent(ev events.Event) {
	domainEventsTotal.WithLabelValues(ev.EventType()).Inc()
	if le, ok := ev.(*events.LeaveEvent); ok && ev.EventType() == events.EventTypeLeaveDecided {
		leaveDecisionsTotal.WithLabelValues(le.Status).Inc()
	}
}

// Subscribe counts every event that passes through the bus.
func Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.Wildcard, func(_ context.Context, ev events.Event) error {
		ObserveEvent(ev)
		return nil
	})
}
