package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Sternrassler/directory-client/internal/notify"
	"github.com/Sternrassler/directory-client/pkg/directory"
	"github.com/Sternrassler/directory-client/pkg/logging"
)

const (
	// DefaultStaleAfter is the freshness window of a successful fetch.
	DefaultStaleAfter = 5 * time.Minute

	// DefaultFetchTimeout bounds a single fetch.
	DefaultFetchTimeout = 10 * time.Second
)

// Config holds result cache configuration.
type Config struct {
	// StaleAfter is how long a successful result counts as fresh.
	StaleAfter time.Duration

	// FetchTimeout bounds each fetch. Zero disables the bound.
	FetchTimeout time.Duration

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		StaleAfter:   DefaultStaleAfter,
		FetchTimeout: DefaultFetchTimeout,
		Now:          time.Now,
	}
}

type slot struct {
	entry       Entry
	invalidated bool
	flight      string
	listeners   notify.Registry[Entry]
}

// Cache is a staleness-aware, deduplicating result cache.
// The zero value is not usable; create instances with New.
type Cache struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	slots  map[string]*slot
	seq    uint64
	closed bool

	group  singleflight.Group
	queue  notify.Queue
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a cache. Close releases it.
func New(cfg Config) *Cache {
	if cfg.StaleAfter < 0 {
		cfg.StaleAfter = 0
	}
	if cfg.FetchTimeout < 0 {
		cfg.FetchTimeout = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		cfg:    cfg,
		logger: logging.NewLogger("result-cache"),
		slots:  make(map[string]*slot),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Get returns the current snapshot for key. Unknown keys report StatusIdle.
func (c *Cache) Get(key Key) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.slots[key.String()]; ok {
		return s.entry
	}
	return c.idleEntry(key)
}

// EnsureFresh makes sure a fetch for key is running or has produced a fresh
// result. The returned channel yields one snapshot once the fetch this call
// started or joined has resolved, or right away when nothing had to be
// fetched. It is closed afterwards.
func (c *Cache) EnsureFresh(key Key, fetch Fetcher) <-chan Entry {
	out := make(chan Entry, 1)
	id := key.String()

	c.mu.Lock()
	if c.closed || fetch == nil {
		snapshot := c.idleEntry(key)
		if s, ok := c.slots[id]; ok {
			snapshot = s.entry
		}
		c.reply(out, snapshot)
		c.mu.Unlock()
		c.queue.Drain()
		return out
	}

	s := c.slotLocked(key)
	var flight <-chan singleflight.Result

	switch {
	case s.entry.Status == StatusLoading && !s.invalidated:
		Requests.WithLabelValues("joined").Inc()
		c.logger.Debug().Str("key", id).Uint64("seq", s.entry.Seq).Msg("Joined in-flight fetch")
		flight = c.group.DoChan(s.flight, c.flightFunc(id, s.entry.Seq, fetch))

	case s.entry.Status == StatusSuccess && !s.invalidated && !s.entry.IsStale(c.cfg.Now()):
		Requests.WithLabelValues("fresh").Inc()
		c.reply(out, s.entry)
		c.mu.Unlock()
		c.queue.Drain()
		return out

	default:
		Requests.WithLabelValues("fetch").Inc()
		flight = c.startLocked(id, s, fetch)
	}
	c.mu.Unlock()
	c.queue.Drain()

	go func() {
		res := <-flight
		entry, _ := res.Val.(Entry)
		c.reply(out, entry)
		c.queue.Drain()
	}()

	return out
}

// reply queues the one-shot answer to an EnsureFresh caller behind every
// transition published so far, so listeners have seen the result before
// the caller does.
func (c *Cache) reply(out chan<- Entry, e Entry) {
	c.queue.Enqueue(func() {
		out <- e
		close(out)
	})
}

// Invalidate forces the next EnsureFresh for key to fetch, even if a fetch
// is in flight. Data stays visible until the new fetch resolves.
// Unknown keys are ignored.
func (c *Cache) Invalidate(key Key) {
	id := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[id]
	if !ok {
		return
	}
	s.invalidated = true
	c.logger.Debug().Str("key", id).Str("status", string(s.entry.Status)).Msg("Entry invalidated")
}

// Subscribe registers l for every state transition of key and returns a
// function that removes it.
// Listeners run on the notification queue and must not wait on a channel
// returned by EnsureFresh.
func (c *Cache) Subscribe(key Key, l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || l == nil {
		return func() {}
	}
	return c.slotLocked(key).listeners.Add(l)
}

// Close cancels in-flight fetches and drops all listeners. Results that
// arrive afterwards are discarded.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	for _, s := range c.slots {
		s.listeners.Clear()
	}
}

func (c *Cache) idleEntry(key Key) Entry {
	return Entry{Key: key, Status: StatusIdle, StaleAfter: c.cfg.StaleAfter}
}

func (c *Cache) slotLocked(key Key) *slot {
	id := key.String()
	s, ok := c.slots[id]
	if !ok {
		s = &slot{entry: c.idleEntry(key)}
		c.slots[id] = s
	}
	return s
}

// startLocked moves the slot to Loading under a new sequence number and
// launches its fetch. Each flight gets its own singleflight key, so a
// finished or superseded flight can never absorb a new one.
func (c *Cache) startLocked(id string, s *slot, fetch Fetcher) <-chan singleflight.Result {
	c.seq++
	seq := c.seq

	s.invalidated = false
	s.flight = fmt.Sprintf("%s#%d", id, seq)
	s.entry = Entry{
		Key:        s.entry.Key,
		Status:     StatusLoading,
		Data:       s.entry.Data,
		FetchedAt:  s.entry.FetchedAt,
		StaleAfter: c.cfg.StaleAfter,
		Seq:        seq,
	}
	c.publishLocked(s)

	c.logger.Debug().Str("key", id).Uint64("seq", seq).Msg("Fetch started")
	return c.group.DoChan(s.flight, c.flightFunc(id, seq, fetch))
}

func (c *Cache) flightFunc(id string, seq uint64, fetch Fetcher) func() (interface{}, error) {
	return func() (interface{}, error) {
		return c.run(id, seq, fetch), nil
	}
}

// run performs one fetch and stores its result if it is still the latest.
func (c *Cache) run(id string, seq uint64, fetch Fetcher) Entry {
	ctx := c.ctx
	cancel := func() {}
	if c.cfg.FetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.FetchTimeout)
	}

	start := time.Now()
	data, err := call(ctx, fetch)
	cancel()
	duration := time.Since(start)
	FetchDuration.Observe(duration.Seconds())

	c.mu.Lock()
	s, ok := c.slots[id]
	if !ok || c.closed || s.entry.Seq != seq {
		Fetches.WithLabelValues("superseded").Inc()
		c.logger.Debug().
			Str("key", id).
			Uint64("seq", seq).
			Dur("duration", duration).
			Msg("Discarded superseded fetch result")

		var current Entry
		if ok {
			current = s.entry
		}
		c.mu.Unlock()
		return current
	}

	next := s.entry
	if err != nil {
		next.Status = StatusError
		next.Err = err
		Fetches.WithLabelValues("error").Inc()
		c.logger.Warn().
			Err(err).
			Str("key", id).
			Uint64("seq", seq).
			Dur("duration", duration).
			Bool("has_data", next.HasData()).
			Msg("Fetch failed")
	} else {
		if data == nil {
			data = directory.EntityList{}
		}
		next.Status = StatusSuccess
		next.Data = data
		next.Err = nil
		next.FetchedAt = c.cfg.Now()
		Fetches.WithLabelValues("success").Inc()
		c.logger.Debug().
			Str("key", id).
			Uint64("seq", seq).
			Int("count", len(data)).
			Dur("duration", duration).
			Msg("Fetch succeeded")
	}

	s.entry = next
	c.publishLocked(s)
	c.mu.Unlock()
	c.queue.Drain()

	return next
}

// publishLocked queues delivery of the slot's current entry. The caller
// must Drain after releasing c.mu.
func (c *Cache) publishLocked(s *slot) {
	c.queue.Enqueue(s.listeners.Broadcast(s.entry))
}

// call runs fetch, turning a panic into an error so the entry cannot stay
// Loading forever.
func call(ctx context.Context, fetch Fetcher) (data directory.EntityList, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}
