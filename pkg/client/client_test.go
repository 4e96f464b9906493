package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/directory-client/internal/testutil"
	"github.com/Sternrassler/directory-client/pkg/httpcache"
)

const testUserAgent = "DirectoryTest/1.0.0 (test@example.com)"

// fastRetry keeps retry tests quick.
func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func newTestClient(t *testing.T, baseURL string, store ValidatorStore) *Client {
	t.Helper()

	cfg := DefaultConfig(baseURL, testUserAgent)
	cfg.Retry = fastRetry()
	cfg.Store = store

	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("https://api.example.com", testUserAgent),
		},
		{
			name:        "missing base url",
			config:      Config{UserAgent: testUserAgent},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name:        "empty user agent",
			config:      Config{BaseURL: "https://api.example.com"},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name:        "relative base url",
			config:      Config{BaseURL: "/api", UserAgent: testUserAgent},
			expectError: true,
			errorMsg:    `base url must be absolute (got "/api")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Error("Client is nil")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://api.example.com", testUserAgent)

	if cfg.Endpoint != "/users" {
		t.Errorf("Endpoint = %q, want /users", cfg.Endpoint)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Store != nil {
		t.Error("Store should be nil by default")
	}
}

func TestNew_TargetURL(t *testing.T) {
	tests := []struct {
		base     string
		endpoint string
		want     string
	}{
		{"https://api.example.com", "/users", "https://api.example.com/users"},
		{"https://api.example.com/", "users", "https://api.example.com/users"},
		{"https://api.example.com/v2", "/users", "https://api.example.com/v2/users"},
	}

	for _, tt := range tests {
		cfg := DefaultConfig(tt.base, testUserAgent)
		cfg.Endpoint = tt.endpoint
		c, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%q) error = %v", tt.base, err)
		}
		if got := c.URL(); got != tt.want {
			t.Errorf("URL() = %q, want %q", got, tt.want)
		}
	}
}

func TestFetchEntities_Success(t *testing.T) {
	mock := testutil.NewMockDirectory(testutil.SampleUsers(3))
	defer mock.Close()

	c := newTestClient(t, mock.URL(), nil)

	users, err := c.FetchEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "1", users[0].ID)
	assert.Equal(t, "user1@example.com", users[0].Email)
	assert.Equal(t, "admin", users[0].Role)
	assert.Equal(t, "https://example.com/avatars/1.png", users[0].AvatarURL)
	assert.Equal(t, "1/15/2023", users[0].JoinDate)
}

func TestFetchEntities_RequestHeaders(t *testing.T) {
	mock := testutil.NewMockDirectory(testutil.SampleUsers(1))
	defer mock.Close()

	c := newTestClient(t, mock.URL(), nil)

	_, err := c.FetchEntities(context.Background())
	require.NoError(t, err)

	header := mock.GetLastRequestHeader()
	assert.Equal(t, testUserAgent, header.Get("User-Agent"))
	assert.Equal(t, "application/json", header.Get("Accept"))

	_, err = uuid.Parse(header.Get(RequestIDHeader))
	assert.NoError(t, err, "X-Request-ID must be a UUID")
}

func TestFetchEntities_EmptyList(t *testing.T) {
	mock := testutil.NewMockDirectory(nil)
	defer mock.Close()

	c := newTestClient(t, mock.URL(), nil)

	users, err := c.FetchEntities(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestFetchEntities_ServerErrorExhaustsRetries(t *testing.T) {
	mock := testutil.NewMockDirectory(nil)
	defer mock.Close()
	mock.SetResponse(testutil.UsersPath, testutil.NewServerErrorResponse())

	c := newTestClient(t, mock.URL(), nil)

	_, err := c.FetchEntities(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch users: 500 Internal Server Error", err.Error())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	assert.Equal(t, ErrorClassServer, transportErr.Class())
	assert.Equal(t, 3, mock.GetRequestCount())
}

func TestFetchEntities_RetryThenSuccess(t *testing.T) {
	mock := testutil.NewMockDirectory(nil)
	defer mock.Close()

	var calls atomic.Int32
	payload := testutil.UsersPayload(testutil.SampleUsers(2))
	mock.SetHandler(testutil.UsersPath, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(payload))
	})

	c := newTestClient(t, mock.URL(), nil)

	users, err := c.FetchEntities(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchEntities_NoRetryOnClientError(t *testing.T) {
	mock := testutil.NewMockDirectory(nil)
	defer mock.Close()
	mock.SetResponse(testutil.UsersPath, testutil.NewNotFoundResponse())

	c := newTestClient(t, mock.URL(), nil)

	_, err := c.FetchEntities(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch users: 404 Not Found", err.Error())
	assert.Equal(t, ErrorClassClient, ClassOf(err))
	assert.Equal(t, 1, mock.GetRequestCount())
}

func TestFetchEntities_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "users not array", body: `{"data": {"users": "nope"}}`},
		{name: "users missing", body: `{"data": {}}`},
		{name: "users null", body: `{"data": {"users": null}}`},
		{name: "data missing", body: `{"users": []}`},
		{name: "not json", body: `<html>oops</html>`},
		{name: "bad record", body: `{"data": {"users": [{"id": 5}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockDirectory(nil)
			defer mock.Close()
			mock.SetResponse(testutil.UsersPath, testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       tt.body,
			})

			c := newTestClient(t, mock.URL(), nil)

			_, err := c.FetchEntities(context.Background())
			require.Error(t, err)
			assert.Equal(t, "Invalid API response format", err.Error())

			var shapeErr *ShapeError
			assert.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, 1, mock.GetRequestCount(), "shape errors are not retried")
		})
	}
}

func TestFetchEntities_NetworkError(t *testing.T) {
	mock := testutil.NewMockDirectory(nil)
	baseURL := mock.URL()
	mock.Close()

	c := newTestClient(t, baseURL, nil)

	_, err := c.FetchEntities(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to fetch users: "), err.Error())
	assert.Equal(t, ErrorClassNetwork, ClassOf(err))
}

func TestFetchEntities_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockDirectory(nil)
	defer mock.Close()
	mock.SetResponse(testutil.UsersPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.UsersPayload(nil),
		Delay:      200 * time.Millisecond,
	})

	c := newTestClient(t, mock.URL(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchEntities(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrorClassNetwork, ClassOf(err))
}

func TestFetchEntities_ConditionalRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()
	store := httpcache.NewStore(redisClient, time.Hour)

	mock := testutil.NewMockDirectory(testutil.SampleUsers(4))
	defer mock.Close()

	c := newTestClient(t, mock.URL(), store)

	first, err := c.FetchEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Zero(t, mock.GetConditionalCount())

	stored, err := store.Get(context.Background(), httpcache.KeyFor(c.target))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ETag)

	second, err := c.FetchEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second, "304 must be served from the stored body")
	assert.Equal(t, 1, mock.GetConditionalCount())
	assert.Equal(t, stored.ETag, mock.GetLastRequestHeader().Get("If-None-Match"))
}

func TestFetchEntities_StoreFailureFallsBackToPlainRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()
	store := httpcache.NewStore(redisClient, time.Hour)
	mr.Close()

	mock := testutil.NewMockDirectory(testutil.SampleUsers(2))
	defer mock.Close()

	c := newTestClient(t, mock.URL(), store)

	users, err := c.FetchEntities(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Zero(t, mock.GetConditionalCount())
}

// staticStore serves one entry and records writes.
type staticStore struct {
	entry *httpcache.Entry
	sets  int
}

func (s *staticStore) Get(ctx context.Context, key string) (*httpcache.Entry, error) {
	if s.entry == nil {
		return nil, httpcache.ErrCacheMiss
	}
	return s.entry, nil
}

func (s *staticStore) Set(ctx context.Context, key string, entry *httpcache.Entry) error {
	s.sets++
	s.entry = entry
	return nil
}

func TestFetchEntities_NotModifiedWithoutStoredEntry(t *testing.T) {
	mock := testutil.NewMockDirectory(nil)
	defer mock.Close()
	mock.SetResponse(testutil.UsersPath, testutil.MockResponse{StatusCode: http.StatusNotModified})

	c := newTestClient(t, mock.URL(), &staticStore{})

	_, err := c.FetchEntities(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch users: 304 Not Modified", err.Error())
}

func TestFetchEntities_StoresValidators(t *testing.T) {
	mock := testutil.NewMockDirectory(testutil.SampleUsers(1))
	defer mock.Close()

	store := &staticStore{}
	c := newTestClient(t, mock.URL(), store)

	_, err := c.FetchEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.sets)
	require.NotNil(t, store.entry)
	assert.Contains(t, string(store.entry.Body), `"users"`)
}

func TestDecodeEntities_ErrorsAreShapeErrors(t *testing.T) {
	_, err := decodeEntities([]byte(`{"data": {"users": 3}}`))
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("decodeEntities() error = %v, want *ShapeError", err)
	}
	if shapeErr.Reason != "data.users is not an array" {
		t.Errorf("Reason = %q", shapeErr.Reason)
	}
}
