// Package metrics provides Prometheus metrics for the newsletter pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished runs by terminal status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsletter",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by final status",
		},
		[]string{"status"},
	)

	// StageDuration measures each pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsletter",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// CandidatesTotal counts adapted candidates per source.
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsletter",
			Name:      "candidates_total",
			Help:      "Article candidates collected per source before deduplication",
		},
		[]string{"source"},
	)

	// SourceErrorsTotal counts swallowed provider failures.
	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsletter",
			Name:      "source_errors_total",
			Help:      "Provider failures that were logged and skipped",
		},
		[]string{"source", "kind"},
	)

	// DuplicatesDropped observes how many candidates dedup removed per run.
	DuplicatesDropped = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsletter",
			Name:      "duplicates_dropped",
			Help:      "Candidates removed by URL deduplication per collection",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// QueueDepth tracks jobs waiting in the in-process dispatcher.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "newsletter",
			Name:      "queue_depth",
			Help:      "Jobs accepted but not yet started",
		},
	)
)
