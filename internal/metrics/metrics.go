// Package metrics holds the prometheus collectors shared by the query cache
// and the dev backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is private to webtray so tests can construct several servers
// without tripping over duplicate registrations on the default registry.
var Registry = prometheus.NewRegistry()

var (
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webtray",
		Subsystem: "query_cache",
		Name:      "lookups_total",
		Help:      "Query cache lookups by domain and result (hit, miss, stale).",
	}, []string{"domain", "result"})

	CacheInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "webtray",
		Subsystem: "query_cache",
		Name:      "invalidated_entries_total",
		Help:      "Entries marked stale by store-scoped invalidation.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webtray",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Dev backend requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "webtray",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Dev backend request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	Registry.MustRegister(CacheLookups, CacheInvalidations, HTTPRequests, HTTPDuration)
}

// Handler serves the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
