package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/directory-client/pkg/directory"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// countingFetcher returns list and counts calls.
func countingFetcher(list directory.EntityList, calls *atomic.Int32) Fetcher {
	return func(ctx context.Context) (directory.EntityList, error) {
		calls.Add(1)
		return list, nil
	}
}

// gatedFetcher blocks until release receives a result.
type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan fetchResult
}

type fetchResult struct {
	data directory.EntityList
	err  error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan struct{}, 16),
		release: make(chan fetchResult),
	}
}

func (g *gatedFetcher) Fetch(ctx context.Context) (directory.EntityList, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case r := <-g.release:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func users(ids ...string) directory.EntityList {
	list := make(directory.EntityList, 0, len(ids))
	for _, id := range ids {
		list = append(list, directory.Entity{ID: id, Username: "user" + id})
	}
	return list
}

func testConfig(clock *fakeClock) Config {
	return Config{
		StaleAfter:   time.Minute,
		FetchTimeout: 5 * time.Second,
		Now:          clock.Now,
	}
}

func receive(ch <-chan Entry) Entry {
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		panic("timed out waiting for cache entry")
	}
}
