package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Service metrics
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total messages stored by the send endpoint",
		},
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_realtime_publish_failures_total",
			Help: "Total failed realtime publications",
		},
	)

	// Client sync metrics
	SnapshotsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sync_snapshots_applied_total",
			Help: "Snapshots that replaced the rendered conversation",
		},
	)

	SnapshotsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sync_snapshots_discarded_total",
			Help: "Snapshots dropped before reaching the renderer",
		},
		[]string{"reason"}, // "stale", "unchanged", "empty"
	)

	PushesApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sync_pushes_applied_total",
			Help: "Realtime pushes appended to the conversation",
		},
	)

	PushesDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sync_pushes_duplicate_total",
			Help: "Realtime pushes discarded because the id was already rendered",
		},
	)

	TransportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sync_transport_failures_total",
			Help: "Failed conversation requests",
		},
		[]string{"operation"}, // "fetch", "send"
	)

	RealtimeEnabled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sync_realtime_enabled",
			Help: "1 when the realtime subscription is active",
		},
	)
)
