// Package httpcache stores HTTP response validators in Redis so the directory
// client can revalidate with conditional requests.
//
// After a successful GET the client stores the body together with its ETag
// and Last-Modified values. The next request for the same URL carries
// If-None-Match (preferred) or If-Modified-Since; a 304 Not Modified answer
// is served from the stored body without transferring the payload again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := httpcache.NewStore(redisClient, 24*time.Hour)
//
//	key := httpcache.KeyFor(req.URL)
//	if entry, err := store.Get(ctx, key); err == nil {
//		httpcache.AddConditionalHeaders(req, entry)
//	}
//
// The store never decides freshness; it only remembers validators. Entries
// expire from Redis after the configured retention.
//
// # Metrics
//
//   - directory_http_cache_hits_total - stored validators found
//   - directory_http_cache_misses_total - no stored validators
//   - directory_http_304_responses_total - revalidations answered with 304
//   - directory_http_cache_errors_total{operation} - Redis failures
package httpcache
