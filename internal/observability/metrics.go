package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GraphMutations counts social graph writes by entity, operation and outcome.
	GraphMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_graph_mutations_total",
		Help: "Total number of social graph mutations",
	}, []string{"entity", "op", "outcome"})

	// CascadeDeletedRows counts rows removed by cascading deletes, by table.
	CascadeDeletedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_cascade_deleted_rows_total",
		Help: "Rows removed as part of cascading deletes",
	}, []string{"table"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})
)

// RecordMutation increments GraphMutations with an outcome derived from code.
// An empty code means success.
func RecordMutation(entity, op, code string) {
	outcome := "ok"
	if code != "" {
		outcome = code
	}
	GraphMutations.WithLabelValues(entity, op, outcome).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
