package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflexion_runs_total",
			Help: "Total number of research runs by final status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reflexion_run_duration_seconds",
			Help:    "Research run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	// Loop metrics
	DispatchRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflexion_dispatch_rounds_total",
			Help: "Total number of tool dispatch rounds",
		},
		[]string{"phase"},
	)

	SchemaDrift = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflexion_schema_drift_total",
			Help: "Structured calls recovered through the fallback parser",
		},
		[]string{"shape"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reflexion_generation_duration_seconds",
			Help:    "Generation call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"shape"},
	)

	// Search metrics
	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflexion_search_queries_total",
			Help: "Total number of search queries by phase and outcome",
		},
		[]string{"phase", "outcome"},
	)
)
