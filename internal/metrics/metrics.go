package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds only secret-cache metrics so textfile snapshots stay small.
var Registry = prometheus.NewRegistry()

var (
	// Counts cache lookups by outcome (hit, miss).
	CacheLookupsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "secret_cache_lookups_total",
			Help: "Total number of cache file lookups (by outcome).",
		},
		[]string{"outcome"},
	)

	// Counts backend fetches by result (ok or the error kind).
	FetchesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "secret_cache_fetches_total",
			Help: "Total number of secret fetches from the backend (by result).",
		},
		[]string{"result"},
	)

	// Measures the duration of a full fetch-and-write cycle.
	FetchDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "secret_cache_fetch_duration_seconds",
			Help:    "Duration of backend fetch plus cache write in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms → ~20s
		},
	)

	SecretsCached = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "secret_cache_secrets",
			Help: "Number of secrets written by the last successful fetch.",
		},
	)

	LastFetchTimestamp = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "secret_cache_last_fetch_timestamp_seconds",
			Help: "Unix time of the last successful fetch.",
		},
	)
)

// IncLookup records a cache lookup outcome ("hit" or "miss").
func IncLookup(outcome string) {
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one fetch attempt that started at start.
// result is "ok" or a failure label; count is only used on success.
func ObserveFetch(start time.Time, result string, count int) {
	FetchDuration.Observe(time.Since(start).Seconds())
	FetchesTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		SecretsCached.Set(float64(count))
		LastFetchTimestamp.SetToCurrentTime()
	}
}

// WriteTextfile writes a snapshot of Registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
