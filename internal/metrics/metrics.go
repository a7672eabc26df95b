// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the service registers. A single
// instance is built at startup and passed explicitly to whatever needs
// to observe it, rather than relying on package-level global state.
type Metrics struct {
	ProbeRequests      *prometheus.CounterVec
	FetchRequests      *prometheus.CounterVec
	FallbackAttempts   *prometheus.CounterVec
	ProbeCacheHits     prometheus.Counter
	ProbeCacheMisses   prometheus.Counter
	CredentialUnlinkFailures prometheus.Counter
	StoreEntriesReaped prometheus.Counter
	FetchDuration      *prometheus.HistogramVec
}

// New registers and returns a fresh Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProbeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reeltap",
			Name:      "probe_requests_total",
			Help:      "Total probe requests by terminal outcome kind.",
		}, []string{"kind"}),
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reeltap",
			Name:      "fetch_requests_total",
			Help:      "Total fetch requests by terminal outcome kind.",
		}, []string{"kind"}),
		FallbackAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reeltap",
			Name:      "fallback_attempts_total",
			Help:      "Total per-profile fallback attempts by profile and outcome kind.",
		}, []string{"profile", "kind"}),
		ProbeCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reeltap",
			Name:      "probe_cache_hits_total",
			Help:      "Probe requests served from cache.",
		}),
		ProbeCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reeltap",
			Name:      "probe_cache_misses_total",
			Help:      "Probe requests that missed the cache.",
		}),
		CredentialUnlinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reeltap",
			Name:      "credential_unlink_failures_total",
			Help:      "Cookie file deletions that failed after all retries.",
		}),
		StoreEntriesReaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reeltap",
			Name:      "store_entries_reaped_total",
			Help:      "Fetched files deleted by the store reaper.",
		}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reeltap",
			Name:      "fetch_duration_seconds",
			Help:      "Wall-clock duration of successful fetch requests.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"profile"}),
	}
}
