package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bullpost_backend_requests_total",
		Help: "Requests issued to the BullPost backend",
	}, []string{"operation", "status"})

	BackendRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bullpost_backend_request_duration_seconds",
		Help:    "Latency of BullPost backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ReconcileRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bullpost_reconcile_runs_total",
		Help: "Cache/backend reconcile runs by result",
	}, []string{"result"})

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bullpost_notifications_total",
		Help: "User-facing notifications raised by level",
	}, []string{"level"})

	StaleCompletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bullpost_stale_completions_total",
		Help: "Async completions dropped because a newer request superseded them",
	}, []string{"container"})
)

// MustRegister registers every collector with the registerer
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		BackendRequestTotal,
		BackendRequestDuration,
		ReconcileRunsTotal,
		NotificationsTotal,
		StaleCompletionsTotal,
	)
}

// ObserveBackendRequest records one backend round trip. status is the HTTP
// status code as text, or "error" when no response arrived.
func ObserveBackendRequest(operation, status string, start time.Time) {
	if operation == "" {
		operation = "unknown"
	}
	BackendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	BackendRequestTotal.WithLabelValues(operation, status).Inc()
}
