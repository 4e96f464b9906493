package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests tracks EnsureFresh calls by how they were served.
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_cache_requests_total",
			Help: "Total number of result cache requests",
		},
		[]string{"result"}, // "fresh", "joined", "fetch"
	)

	// Fetches tracks resolved fetches by outcome.
	Fetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_cache_fetches_total",
			Help: "Total number of result cache fetches by outcome",
		},
		[]string{"outcome"}, // "success", "error", "superseded"
	)

	// FetchDuration tracks fetch latency.
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "directory_cache_fetch_duration_seconds",
			Help:    "Duration of result cache fetches",
			Buckets: prometheus.DefBuckets,
		},
	)
)
