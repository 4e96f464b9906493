package httpcache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Entry is a stored response body with its validators.
type Entry struct {
	// Body is the raw response body.
	Body []byte `json:"body"`

	// ETag for If-None-Match.
	ETag string `json:"etag,omitempty"`

	// LastModified for If-Modified-Since.
	LastModified time.Time `json:"last_modified,omitempty"`

	// StoredAt is when the response was stored.
	StoredAt time.Time `json:"stored_at"`
}

// HasValidators reports whether a conditional request can be made.
func (e *Entry) HasValidators() bool {
	if e == nil {
		return false
	}
	return e.ETag != "" || !e.LastModified.IsZero()
}

// FromResponse reads the body of a 200 response into an Entry and restores
// resp.Body so the caller can still decode it.
func FromResponse(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry := &Entry{
		Body:     body,
		ETag:     resp.Header.Get("ETag"),
		StoredAt: time.Now(),
	}

	if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry, nil
}

// AddConditionalHeaders sets If-None-Match, or If-Modified-Since when no
// ETag is known.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if req == nil || !entry.HasValidators() {
		return
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else {
		req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
}
