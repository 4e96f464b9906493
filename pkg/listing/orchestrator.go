package listing

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/directory-client/internal/notify"
	"github.com/Sternrassler/directory-client/pkg/cache"
	"github.com/Sternrassler/directory-client/pkg/directory"
	"github.com/Sternrassler/directory-client/pkg/filter"
	"github.com/Sternrassler/directory-client/pkg/logging"
	"github.com/Sternrassler/directory-client/pkg/pagination"
)

// EntitiesKey is the cache key of the entity list.
var EntitiesKey = cache.Key{Resource: "entities"}

// Config holds orchestrator configuration.
type Config struct {
	// ItemsPerPage is the page size (default: 10).
	ItemsPerPage int

	// Cache configures the owned result cache.
	Cache cache.Config
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		ItemsPerPage: pagination.DefaultItemsPerPage,
		Cache:        cache.DefaultConfig(),
	}
}

// Orchestrator exposes the list read model and the commands that change it.
type Orchestrator struct {
	fetch  cache.Fetcher
	cache  *cache.Cache
	pager  *pagination.Controller
	logger zerolog.Logger

	mu          sync.Mutex
	state       filter.State
	entry       cache.Entry
	view        View
	closed      bool
	unsubscribe func()

	listeners notify.Registry[View]
	queue     notify.Queue
}

// New creates an orchestrator with its own cache. Close releases both.
func New(fetch cache.Fetcher, cfg Config) *Orchestrator {
	o := &Orchestrator{
		fetch:  fetch,
		cache:  cache.New(cfg.Cache),
		pager:  pagination.New(cfg.ItemsPerPage),
		logger: logging.NewLogger("listing"),
	}

	o.mu.Lock()
	o.entry = o.cache.Get(EntitiesKey)
	o.view = buildView(o.entry, o.state, o.pager)
	o.mu.Unlock()

	o.unsubscribe = o.cache.Subscribe(EntitiesKey, o.onEntry)
	return o
}

// Load starts the initial fetch if the list is missing or stale. The
// returned channel yields the cache entry once the fetch resolved.
func (o *Orchestrator) Load() <-chan cache.Entry {
	return o.cache.EnsureFresh(EntitiesKey, o.fetch)
}

// Refresh refetches regardless of staleness. Current data stays visible
// until the new result arrives.
func (o *Orchestrator) Refresh() <-chan cache.Entry {
	o.logger.Debug().Msg("Refresh requested")
	o.cache.Invalidate(EntitiesKey)
	return o.cache.EnsureFresh(EntitiesKey, o.fetch)
}

// SetSearchTerm filters by a case-insensitive substring and returns to page 1.
func (o *Orchestrator) SetSearchTerm(term string) {
	o.update(func() {
		o.state.SearchTerm = term
		o.pager.Reset()
	})
}

// SetRole filters by exact role ("" for all roles) and returns to page 1.
func (o *Orchestrator) SetRole(role string) {
	o.update(func() {
		o.state.Role = role
		o.pager.Reset()
	})
}

// ClearFilters removes the search term and the role filter.
func (o *Orchestrator) ClearFilters() {
	o.update(func() {
		o.state = filter.State{}
		o.pager.Reset()
	})
}

// GoToPage moves to page n, clamped to the available pages.
func (o *Orchestrator) GoToPage(n int) {
	o.update(func() {
		o.pager.GoToPage(n)
	})
}

// NextPage advances one page unless on the last one.
func (o *Orchestrator) NextPage() {
	o.update(o.pager.Next)
}

// PreviousPage goes back one page unless on the first one.
func (o *Orchestrator) PreviousPage() {
	o.update(o.pager.Previous)
}

// View returns the current read model.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// Filter returns the active filter state.
func (o *Orchestrator) Filter() filter.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Lookup returns the loaded entity with the given id.
func (o *Orchestrator) Lookup(id string) (directory.Entity, error) {
	o.mu.Lock()
	data := o.entry.Data
	o.mu.Unlock()

	entity, ok := data.FindByID(id)
	if !ok {
		return directory.Entity{}, directory.NotFound(id)
	}
	return entity, nil
}

// Subscribe registers fn for every new view and returns a function that
// removes it.
func (o *Orchestrator) Subscribe(fn func(View)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || fn == nil {
		return func() {}
	}
	return o.listeners.Add(fn)
}

// Close stops notifications and tears down the owned cache.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.listeners.Clear()
	o.mu.Unlock()

	o.unsubscribe()
	o.cache.Close()
}

// onEntry receives cache transitions of EntitiesKey.
func (o *Orchestrator) onEntry(e cache.Entry) {
	o.update(func() {
		o.entry = e
	})

	if e.Status == cache.StatusError {
		o.logger.Warn().
			Err(e.Err).
			Uint64("seq", e.Seq).
			Bool("has_data", e.HasData()).
			Msg("Entity list fetch failed")
	}
}

// update applies mutate and recomputes the view under o.mu, then delivers
// the new view outside the lock.
func (o *Orchestrator) update(mutate func()) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	mutate()
	o.view = buildView(o.entry, o.state, o.pager)
	recordStatus(o.view.Status)
	o.queue.Enqueue(o.listeners.Broadcast(o.view))

	o.logger.Debug().
		Str("status", string(o.view.Status)).
		Int("page", o.view.EffectivePage).
		Int("total_pages", o.view.TotalPages).
		Int("filtered", o.view.TotalFilteredCount).
		Msg("View updated")
	o.mu.Unlock()

	o.queue.Drain()
}
