// Package metrics provides Prometheus metrics for listing imports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ParseTotal counts URL parse attempts by outcome code ("ok" on success).
	ParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomy",
			Subsystem: "listing",
			Name:      "parse_total",
			Help:      "Total number of listing URL parse attempts",
		},
		[]string{"result"},
	)

	// FetchTotal counts metadata fetches by outcome code ("ok" on success).
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomy",
			Subsystem: "listing",
			Name:      "fetch_total",
			Help:      "Total number of listing metadata fetches",
		},
		[]string{"result"},
	)

	// FetchDuration measures metadata fetch latency.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomy",
			Subsystem: "listing",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of listing metadata fetches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"result"},
	)

	// CacheLookups counts result cache lookups.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomy",
			Subsystem: "listing",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordParse records a parse outcome
func RecordParse(result string) {
	ParseTotal.WithLabelValues(result).Inc()
}

// RecordFetch records a fetch outcome and latency
func RecordFetch(result string, seconds float64) {
	FetchTotal.WithLabelValues(result).Inc()
	FetchDuration.WithLabelValues(result).Observe(seconds)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheLookups.WithLabelValues("miss").Inc()
}

// RecordCacheError records a cache backend failure
func RecordCacheError() {
	CacheLookups.WithLabelValues("error").Inc()
}
