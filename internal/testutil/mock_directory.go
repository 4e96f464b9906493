// Package testutil provides testing utilities for the directory client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/Sternrassler/directory-client/pkg/directory"
)

// UsersPath is the default entity list endpoint.
const UsersPath = "/users"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockDirectory is a configurable mock directory API for testing.
type MockDirectory struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	users    directory.EntityList

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockDirectory creates a mock directory API serving users at UsersPath.
func NewMockDirectory(users directory.EntityList) *MockDirectory {
	mock := &MockDirectory{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		users:    users,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()

		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockDirectory) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDirectory) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockDirectory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
}

// SetUsers replaces the list served by the default handler.
func (m *MockDirectory) SetUsers(users directory.EntityList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

// SetHandler sets a custom handler for a specific path.
func (m *MockDirectory) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// ClearHandler removes a custom handler so the default one serves path again.
func (m *MockDirectory) ClearHandler(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, path)
}

// SetResponse configures a simple response for a path.
func (m *MockDirectory) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockDirectory) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockDirectory) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockDirectory) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Clone()
}

// defaultHandler serves the configured users at UsersPath with an ETag
// derived from the list and answers matching conditional requests with 304.
func (m *MockDirectory) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != UsersPath {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	users := m.users
	m.mu.RUnlock()

	body := UsersPayload(users)
	etag := fmt.Sprintf(`"users-%d-%d"`, len(users), len(body))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// UsersPayload renders users in the directory API envelope.
func UsersPayload(users directory.EntityList) string {
	if users == nil {
		users = directory.EntityList{}
	}
	body, err := json.Marshal(map[string]any{
		"data": map[string]any{"users": users},
	})
	if err != nil {
		panic(fmt.Sprintf("marshal users payload: %v", err))
	}
	return string(body)
}

// NewUsersResponse creates a 200 OK response carrying users.
func NewUsersResponse(users directory.EntityList) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       UsersPayload(users),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 OK response without the users array.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": {"users": "nope"}}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// SampleUsers returns n deterministic entities. Roles cycle through
// admin, editor and viewer.
func SampleUsers(n int) directory.EntityList {
	roles := []string{"admin", "editor", "viewer"}
	users := make(directory.EntityList, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, directory.Entity{
			ID:          fmt.Sprintf("%d", i),
			FirstName:   fmt.Sprintf("First%d", i),
			LastName:    fmt.Sprintf("Last%d", i),
			Username:    fmt.Sprintf("user%d", i),
			Email:       fmt.Sprintf("user%d@example.com", i),
			Role:        roles[(i-1)%len(roles)],
			AvatarURL:   fmt.Sprintf("https://example.com/avatars/%d.png", i),
			JoinDate:    "1/15/2023",
			Description: fmt.Sprintf("Sample user %d", i),
		})
	}
	return users
}
