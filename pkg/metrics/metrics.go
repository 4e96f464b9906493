// Package metrics provides the Prometheus registry reference for the
// directory client. All metrics are defined in their respective packages
// (cache, client, httpcache, listing) to avoid circular dependencies.
//
// This package provides documentation for all available metrics and the
// handler that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the directory client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered in Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an HTTP handler exposing Gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Result Cache Metrics (pkg/cache):
//   - directory_cache_requests_total{result} (Counter): EnsureFresh calls (fresh, joined, fetch)
//   - directory_cache_fetches_total{outcome} (Counter): Fetch outcomes (success, error, superseded)
//   - directory_cache_fetch_duration_seconds (Histogram): Fetch latency
//
// HTTP Validator Metrics (pkg/httpcache):
//   - directory_http_cache_hits_total (Counter): Stored validators found
//   - directory_http_cache_misses_total (Counter): No stored validators
//   - directory_http_304_responses_total (Counter): 304 Not Modified served from stored bodies
//   - directory_http_cache_errors_total{operation} (Counter): Redis failures
//
// Request Metrics (pkg/client):
//   - directory_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - directory_request_duration_seconds{endpoint} (Histogram): Fetch duration by endpoint
//   - directory_errors_total{class} (Counter): Errors by class (client, server, network, shape)
//
// Retry Metrics (pkg/client):
//   - directory_retries_total{error_class} (Counter): Retry attempts by error class
//   - directory_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - directory_retry_exhausted_total{error_class} (Counter): Fetches that exhausted max retries
//
// Listing Metrics (pkg/listing):
//   - directory_listing_view_updates_total (Counter): Read model recomputations
//   - directory_listing_status{status} (Gauge): 1 for the current orchestrator status
//
// Example Prometheus Queries:
//
//   # Fetch Error Rate
//   rate(directory_cache_fetches_total{outcome="error"}[5m])
//
//   # Deduplicated Requests
//   rate(directory_cache_requests_total{result="joined"}[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(directory_cache_fetch_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(directory_http_304_responses_total[5m]) / rate(directory_requests_total[5m])
