package cache

import (
	"context"
	"time"

	"github.com/Sternrassler/directory-client/pkg/directory"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	// StatusIdle means nothing was requested yet.
	StatusIdle Status = "idle"

	// StatusLoading means a fetch is in flight.
	StatusLoading Status = "loading"

	// StatusSuccess means Data holds the result of the latest fetch.
	StatusSuccess Status = "success"

	// StatusError means the latest fetch failed. Data may still hold an older result.
	StatusError Status = "error"
)

// Fetcher loads the entity list from the remote source.
type Fetcher func(ctx context.Context) (directory.EntityList, error)

// Listener receives every state transition of a key.
type Listener func(Entry)

// Entry is an immutable snapshot of one cache slot.
type Entry struct {
	// Key identifies the slot.
	Key Key

	// Status is the lifecycle state.
	Status Status

	// Data is the last successfully fetched list. Never nil on StatusSuccess.
	Data directory.EntityList

	// Err is the failure of the latest fetch. Set only on StatusError.
	Err error

	// FetchedAt is when Data was fetched. Zero if never.
	FetchedAt time.Time

	// StaleAfter is the freshness window applied to this entry.
	StaleAfter time.Duration

	// Seq is the sequence number of the most recently started fetch.
	Seq uint64
}

// HasData reports whether a successful result was ever stored.
func (e Entry) HasData() bool {
	return !e.FetchedAt.IsZero()
}

// IsStale reports whether the entry has to be refetched at now.
// An entry that was never fetched is stale.
func (e Entry) IsStale(now time.Time) bool {
	if e.FetchedAt.IsZero() {
		return true
	}
	return now.Sub(e.FetchedAt) > e.StaleAfter
}

// Age returns the time since the last successful fetch, or 0 if never.
func (e Entry) Age(now time.Time) time.Duration {
	if e.FetchedAt.IsZero() {
		return 0
	}
	age := now.Sub(e.FetchedAt)
	if age < 0 {
		return 0
	}
	return age
}
