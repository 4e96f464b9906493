// Package cache provides the result cache that sits between the directory
// fetcher and everything that renders entities.
//
// The cache holds one entry per key and decides when the remote source has to
// be asked again:
//
//   - An entry older than its staleness window is refetched on the next
//     EnsureFresh call.
//   - Concurrent EnsureFresh calls for the same key share one in-flight fetch.
//   - Every fetch gets a sequence number; only the most recent one may write
//     its result, so a slow response can never overwrite a newer one.
//   - A failed fetch keeps the previous data (stale-while-error).
//   - Invalidate forces the next EnsureFresh to fetch even while a fetch is in
//     flight; the older flight's result is then discarded.
//
// # Basic Usage
//
//	c := cache.New(cache.DefaultConfig())
//	defer c.Close()
//
//	key := cache.Key{Resource: "users"}
//	unsubscribe := c.Subscribe(key, func(e cache.Entry) {
//		log.Info().Str("status", string(e.Status)).Msg("Entry changed")
//	})
//	defer unsubscribe()
//
//	entry := <-c.EnsureFresh(key, fetchUsers)
//
// Listeners run synchronously in transition order. They may call back into the
// cache; such calls are queued behind the current delivery instead of
// deadlocking.
//
// # Metrics
//
//   - directory_cache_requests_total{result} - EnsureFresh calls (fresh, joined, fetch)
//   - directory_cache_fetches_total{outcome} - resolved fetches (success, error, superseded)
//   - directory_cache_fetch_duration_seconds - fetch latency
package cache
