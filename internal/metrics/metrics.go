package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_backend_attempts_total",
			Help: "Model backend calls by task and outcome (success, retryable, fatal)",
		},
		[]string{"task", "outcome"},
	)

	BackendBackoffSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_backend_backoff_seconds_total",
			Help: "Cumulative backoff requested by the retry controller",
		},
		[]string{"task"},
	)

	ParseOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_parse_outcomes_total",
			Help: "Parsed model outputs by task and status (ok, fallback)",
		},
		[]string{"task", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resume_task_duration_seconds",
			Help:    "End-to-end duration of an analysis task",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		},
		[]string{"task"},
	)

	HistoryRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_history_records_total",
			Help: "History records by status (saved, failed, dropped)",
		},
		[]string{"status"},
	)
)
