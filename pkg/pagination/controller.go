package pagination

import "sync"

// DefaultItemsPerPage is used when a non-positive page size is configured.
const DefaultItemsPerPage = 10

// Window is the result of Compute for a given list length.
type Window struct {
	EffectivePage int `json:"effective_page"`
	TotalPages    int `json:"total_pages"`
	StartIndex    int `json:"start_index"`
	EndIndex      int `json:"end_index"`
}

// Len is the number of items in the window.
func (w Window) Len() int {
	return w.EndIndex - w.StartIndex
}

// StartItem is the 1-based position of the first item shown, or 0 when empty.
func (w Window) StartItem() int {
	if w.Len() == 0 {
		return 0
	}
	return w.StartIndex + 1
}

// EndItem is the 1-based position of the last item shown, or 0 when empty.
func (w Window) EndItem() int {
	return w.EndIndex
}

// Controller tracks the requested page for a fixed page size.
// It is safe for concurrent use.
type Controller struct {
	mu            sync.Mutex
	requestedPage int
	itemsPerPage  int

	// totalPages is the page count seen by the last Compute; GoToPage,
	// Next and Previous clamp against it.
	totalPages int
}

// New creates a controller positioned on page 1.
func New(itemsPerPage int) *Controller {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	return &Controller{
		requestedPage: 1,
		itemsPerPage:  itemsPerPage,
	}
}

// ItemsPerPage returns the configured page size.
func (c *Controller) ItemsPerPage() int {
	return c.itemsPerPage
}

// RequestedPage returns the page last asked for, before clamping against
// the current list length.
func (c *Controller) RequestedPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestedPage
}

// Compute derives the window for a list of the given length and remembers
// the resulting page count for later navigation.
func (c *Controller) Compute(length int) Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := computeWindow(c.requestedPage, c.itemsPerPage, length)
	c.totalPages = w.TotalPages
	return w
}

// GoToPage requests page n, clamped to [1, max(1, totalPages)].
func (c *Controller) GoToPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestedPage = clamp(n, 1, max(1, c.totalPages))
}

// Reset moves back to page 1.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestedPage = 1
}

// Next advances one page. It is a no-op on the last page.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.effectivePage()
	if current < c.totalPages {
		c.requestedPage = current + 1
	}
}

// Previous goes back one page. It is a no-op on page 1.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.effectivePage()
	if current > 1 {
		c.requestedPage = current - 1
	}
}

// effectivePage must be called with c.mu held.
func (c *Controller) effectivePage() int {
	return clamp(c.requestedPage, 1, max(1, c.totalPages))
}

func computeWindow(requestedPage, itemsPerPage, length int) Window {
	if length < 0 {
		length = 0
	}

	totalPages := (length + itemsPerPage - 1) / itemsPerPage
	page := clamp(requestedPage, 1, max(1, totalPages))

	start := min((page-1)*itemsPerPage, length)
	end := min(start+itemsPerPage, length)

	return Window{
		EffectivePage: page,
		TotalPages:    totalPages,
		StartIndex:    start,
		EndIndex:      end,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Paginate returns the slice of items covered by w. Bounds are clipped to
// len(items), so a stale window never panics.
func Paginate[T any](items []T, w Window) []T {
	start := clamp(w.StartIndex, 0, len(items))
	end := clamp(w.EndIndex, start, len(items))
	return items[start:end]
}
