package listing

import (
	"time"

	"github.com/Sternrassler/directory-client/pkg/cache"
	"github.com/Sternrassler/directory-client/pkg/directory"
	"github.com/Sternrassler/directory-client/pkg/filter"
	"github.com/Sternrassler/directory-client/pkg/pagination"
)

// Status is the presentation state of the list.
type Status string

const (
	// StatusIdle means nothing was loaded yet.
	StatusIdle Status = "idle"

	// StatusLoading means the first fetch is in flight.
	StatusLoading Status = "loading"

	// StatusRefreshing means a fetch is in flight while older data is shown.
	StatusRefreshing Status = "refreshing"

	// StatusReady means the latest fetch succeeded.
	StatusReady Status = "ready"

	// StatusFailed means the latest fetch failed.
	StatusFailed Status = "failed"
)

var allStatuses = []Status{StatusIdle, StatusLoading, StatusRefreshing, StatusReady, StatusFailed}

// View is the read model of the list.
type View struct {
	Status               Status                `json:"status"`
	Entities             directory.EntityList  `json:"entities"`
	TotalFilteredCount   int                   `json:"total_filtered_count"`
	TotalUnfilteredCount int                   `json:"total_unfiltered_count"`
	EffectivePage        int                   `json:"effective_page"`
	TotalPages           int                   `json:"total_pages"`
	ErrorMessage         string                `json:"error_message,omitempty"`
	SearchTerm           string                `json:"search_term"`
	Role                 string                `json:"role"`
	RoleOptions          []string              `json:"role_options"`
	StartItem            int                   `json:"start_item"`
	EndItem              int                   `json:"end_item"`
	Pages                []pagination.PageItem `json:"pages"`
	FetchedAt            time.Time             `json:"fetched_at"`
}

// statusFor maps a cache entry to the presentation state.
func statusFor(e cache.Entry) Status {
	switch e.Status {
	case cache.StatusLoading:
		if e.HasData() {
			return StatusRefreshing
		}
		return StatusLoading
	case cache.StatusSuccess:
		return StatusReady
	case cache.StatusError:
		return StatusFailed
	default:
		return StatusIdle
	}
}

// buildView derives the read model from a cache snapshot and the current
// filter state. pager records the resulting page count.
func buildView(e cache.Entry, state filter.State, pager *pagination.Controller) View {
	all := e.Data
	if all == nil {
		all = directory.EntityList{}
	}

	filtered := filter.Apply(all, state)
	w := pager.Compute(len(filtered))

	v := View{
		Status:               statusFor(e),
		Entities:             pagination.Paginate(filtered, w),
		TotalFilteredCount:   len(filtered),
		TotalUnfilteredCount: len(all),
		EffectivePage:        w.EffectivePage,
		TotalPages:           w.TotalPages,
		SearchTerm:           state.SearchTerm,
		Role:                 state.Role,
		RoleOptions:          filter.RoleOptions(all),
		StartItem:            w.StartItem(),
		EndItem:              w.EndItem(),
		Pages:                pagination.VisiblePages(w.EffectivePage, w.TotalPages),
		FetchedAt:            e.FetchedAt,
	}
	if v.Status == StatusFailed && e.Err != nil {
		v.ErrorMessage = e.Err.Error()
	}
	return v
}
