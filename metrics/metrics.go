package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_events_ingested_total",
			Help: "Total number of security events submitted",
		},
		[]string{"source"},
	)

	EventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_events_rejected_total",
			Help: "Total number of malformed events rejected before matching",
		},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"severity"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_notifications_sent_total",
			Help: "Total number of per-channel notification sends",
		},
		[]string{"channel", "outcome"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_dispatch_duration_seconds",
			Help:    "Time taken to dispatch an alert across all its channels",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_event_processing_duration_seconds",
			Help:    "Time taken to match an event and create alerts",
			Buckets: prometheus.DefBuckets,
		},
	)

	WorkerPoolActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_worker_pool_active_workers",
			Help: "Number of active workers per pool (-1 indicates unhealthy shutdown)",
		},
		[]string{"pool"},
	)

	WorkerPoolQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_worker_pool_queue_size",
			Help: "Current number of queued tasks per pool",
		},
		[]string{"pool"},
	)

	WorkerPoolTasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_worker_pool_tasks_processed_total",
			Help: "Total number of tasks processed per pool",
		},
		[]string{"pool"},
	)
)
