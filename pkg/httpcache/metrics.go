package httpcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts lookups that found stored validators.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_http_cache_hits_total",
			Help: "Total number of stored HTTP validators found",
		},
	)

	// CacheMisses counts lookups with nothing stored.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_http_cache_misses_total",
			Help: "Total number of HTTP validator lookups with nothing stored",
		},
	)

	// NotModifiedResponses counts 304 answers served from the store.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_http_304_responses_total",
			Help: "Total number of 304 Not Modified responses served from stored bodies",
		},
	)

	// CacheErrors counts Redis failures by operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_http_cache_errors_total",
			Help: "Total number of HTTP validator store errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
