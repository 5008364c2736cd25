package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskhive_request_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhive_moderation_actions_total",
		Help: "Total moderation actions processed",
	}, []string{"action"})

	VerificationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskhive_verifications_processed_total",
		Help: "Total identity verifications processed",
	}, []string{"action"})

	AuditDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhive_audit_entries_dropped_total",
		Help: "Audit entries dropped because the pipeline buffer was full",
	})

	AuditWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhive_audit_entries_written_total",
		Help: "Audit entries durably written",
	})
)
