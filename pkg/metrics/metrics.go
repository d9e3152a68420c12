package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qualitree_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPInFlight tracks requests currently being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qualitree_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	// FunctionalityWrites counts tree mutations by operation (create|update|delete|move) and result.
	FunctionalityWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitree_functionality_writes_total",
			Help: "Total number of functionality tree mutations",
		},
		[]string{"operation", "result"},
	)

	// TreeNodes reports the node count of the last tree assembled per project.
	TreeNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qualitree_tree_nodes",
			Help: "Number of nodes in the last assembled functionality tree",
		},
		[]string{"project"},
	)

	// TreeCache counts tree cache lookups by result (hit|miss|error).
	TreeCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitree_tree_cache_total",
			Help: "Functionality tree cache lookups",
		},
		[]string{"result"},
	)

	// MaintenanceRuns counts background maintenance job executions.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualitree_maintenance_runs_total",
			Help: "Background maintenance job executions",
		},
		[]string{"job", "result"},
	)
)
