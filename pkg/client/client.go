// Package client provides the HTTP fetcher for the directory API with
// conditional requests, retries and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/directory-client/pkg/directory"
	"github.com/Sternrassler/directory-client/pkg/httpcache"
)

const (
	// DefaultEndpoint is the entity list path.
	DefaultEndpoint = "/users"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a per-fetch correlation id.
	RequestIDHeader = "X-Request-ID"
)

// ValidatorStore remembers response validators between fetches.
// *httpcache.Store implements it.
type ValidatorStore interface {
	Get(ctx context.Context, key string) (*httpcache.Entry, error)
	Set(ctx context.Context, key string, entry *httpcache.Entry) error
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the directory API (e.g. "https://api.example.com").
	BaseURL string

	// Endpoint is the entity list path (default: "/users").
	Endpoint string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// Retry controls retries of server and network failures.
	Retry RetryConfig

	// Store enables conditional requests. Nil disables them.
	Store ValidatorStore
}

// DefaultConfig returns a configuration with default endpoint, timeout and retries.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		Endpoint:  DefaultEndpoint,
		UserAgent: userAgent,
		Timeout:   DefaultTimeout,
		Retry:     DefaultRetryConfig(),
	}
}

// Client fetches the entity list from the directory API.
type Client struct {
	httpClient *http.Client
	target     *url.URL
	storeKey   string
	config     Config
	logger     zerolog.Logger
}

// New creates a new directory client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	target := *base
	target.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(cfg.Endpoint, "/")
	target.RawPath = ""

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		target:   &target,
		storeKey: httpcache.KeyFor(&target),
		config:   cfg,
		logger:   log.With().Str("component", "directory-client").Logger(),
	}, nil
}

// FetchEntities downloads and decodes the entity list. Errors are always one
// of *TransportError, *ShapeError or *UnknownError.
func (c *Client) FetchEntities(ctx context.Context) (directory.EntityList, error) {
	endpoint := c.target.Path
	requestID := uuid.NewString()
	logger := c.logger.With().Str("endpoint", endpoint).Str("request_id", requestID).Logger()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	stored := c.lookupStored(ctx, logger)

	var body []byte
	retryErr := retryWithBackoff(ctx, c.config.Retry, logger, func(attempt int) (ErrorClass, error) {
		var err error
		body, err = c.attempt(ctx, requestID, stored, logger)
		if err != nil {
			class := ClassOf(err)
			errorsTotal.WithLabelValues(string(class)).Inc()
			return class, err
		}
		return "", nil
	})
	if retryErr != nil {
		err := Classify(retryErr)
		logger.Error().
			Err(err).
			Str("error_class", string(ClassOf(err))).
			Dur("duration", time.Since(startTime)).
			Msg("Fetch failed")
		return nil, err
	}

	entities, err := decodeEntities(body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassShape)).Inc()
		logger.Error().Err(err).Msg("Unexpected response payload")
		return nil, err
	}

	logger.Debug().
		Int("count", len(entities)).
		Dur("duration", time.Since(startTime)).
		Msg("Fetched entities")

	return entities, nil
}

// attempt performs one HTTP round trip and returns the response body.
func (c *Client) attempt(ctx context.Context, requestID string, stored *httpcache.Entry, logger zerolog.Logger) ([]byte, error) {
	endpoint := c.target.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target.String(), nil)
	if err != nil {
		return nil, &UnknownError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if stored != nil {
		httpcache.AddConditionalHeaders(req, stored)
		logger.Debug().Str("etag", stored.ETag).Msg("Making conditional request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		logger.Warn().Err(err).Msg("HTTP request failed")
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotModified && stored != nil:
		httpcache.NotModifiedResponses.Inc()
		logger.Debug().Msg("304 Not Modified - using stored body")
		return stored.Body, nil

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, resp.Body)
		transportErr := &TransportError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
		logger.Warn().
			Int("status_code", resp.StatusCode).
			Str("error_class", string(transportErr.Class())).
			Msg("Directory request error")
		return nil, transportErr
	}

	if c.config.Store == nil {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
		}
		return body, nil
	}

	entry, err := httpcache.FromResponse(resp)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if err := c.config.Store.Set(ctx, c.storeKey, entry); err != nil {
		logger.Warn().Err(err).Msg("Failed to store response validators")
	}
	return entry.Body, nil
}

// lookupStored returns stored validators, or nil when none are usable.
func (c *Client) lookupStored(ctx context.Context, logger zerolog.Logger) *httpcache.Entry {
	if c.config.Store == nil {
		return nil
	}

	entry, err := c.config.Store.Get(ctx, c.storeKey)
	if err != nil {
		if !errors.Is(err, httpcache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Validator store lookup failed")
		}
		return nil
	}
	if !entry.HasValidators() {
		return nil
	}
	return entry
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// URL returns the entity list URL.
func (c *Client) URL() string {
	return c.target.String()
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// statusText returns the reason phrase of resp, e.g. "Internal Server Error".
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text := strings.TrimPrefix(resp.Status, prefix); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

type usersEnvelope struct {
	Data *struct {
		Users json.RawMessage `json:"users"`
	} `json:"data"`
}

// decodeEntities validates the {"data": {"users": [...]}} envelope.
func decodeEntities(body []byte) (directory.EntityList, error) {
	var envelope usersEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ShapeError{Reason: "invalid JSON", Err: err}
	}
	if envelope.Data == nil {
		return nil, &ShapeError{Reason: "missing data"}
	}

	raw := bytes.TrimSpace(envelope.Data.Users)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &ShapeError{Reason: "data.users is not an array"}
	}

	var entities directory.EntityList
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, &ShapeError{Reason: "invalid user record", Err: err}
	}
	if entities == nil {
		entities = directory.EntityList{}
	}
	return entities, nil
}
