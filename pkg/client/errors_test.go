package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{
			name:       "client error should not retry",
			errorClass: ErrorClassClient,
			expected:   false,
		},
		{
			name:       "server error should retry",
			errorClass: ErrorClassServer,
			expected:   true,
		},
		{
			name:       "network error should retry",
			errorClass: ErrorClassNetwork,
			expected:   true,
		},
		{
			name:       "shape error should not retry",
			errorClass: ErrorClassShape,
			expected:   false,
		},
		{
			name:       "empty error class should not retry",
			errorClass: "",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldRetry(tt.errorClass)
			if result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestTransportError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		expected string
		class    ErrorClass
	}{
		{
			name:     "server status",
			err:      &TransportError{StatusCode: 500, Status: "Internal Server Error"},
			expected: "Failed to fetch users: 500 Internal Server Error",
			class:    ErrorClassServer,
		},
		{
			name:     "client status",
			err:      &TransportError{StatusCode: 403, Status: "Forbidden"},
			expected: "Failed to fetch users: 403 Forbidden",
			class:    ErrorClassClient,
		},
		{
			name:     "network failure",
			err:      &TransportError{Err: io.ErrUnexpectedEOF},
			expected: "Failed to fetch users: unexpected EOF",
			class:    ErrorClassNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
			if got := tt.err.Class(); got != tt.class {
				t.Errorf("Class() = %q, want %q", got, tt.class)
			}
		})
	}
}

func TestShapeError(t *testing.T) {
	inner := errors.New("unexpected token")
	err := &ShapeError{Reason: "invalid JSON", Err: inner}

	if err.Error() != "Invalid API response format" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("ShapeError should unwrap to its cause")
	}
}

func TestUnknownError(t *testing.T) {
	if got := (&UnknownError{Err: errors.New("weird")}).Error(); got != "weird" {
		t.Errorf("Error() = %q, want weird", got)
	}
	if got := (&UnknownError{}).Error(); got != "unknown error" {
		t.Errorf("Error() = %q, want unknown error", got)
	}
}

func TestClassify(t *testing.T) {
	transport := &TransportError{StatusCode: 502, Status: "Bad Gateway"}
	shape := &ShapeError{Reason: "missing data"}

	tests := []struct {
		name      string
		err       error
		wantClass ErrorClass
		wantMsg   string
	}{
		{
			name:      "nil",
			err:       nil,
			wantClass: "",
		},
		{
			name:      "transport wrapped by retry exhaustion",
			err:       fmt.Errorf("%w after 3 attempts: %w", ErrRetryExhausted, transport),
			wantClass: ErrorClassServer,
			wantMsg:   "Failed to fetch users: 502 Bad Gateway",
		},
		{
			name:      "shape",
			err:       fmt.Errorf("decode: %w", shape),
			wantClass: ErrorClassShape,
			wantMsg:   "Invalid API response format",
		},
		{
			name:      "context cancelled during backoff",
			err:       fmt.Errorf("%w: %v", ErrContextCancelled, context.Canceled),
			wantClass: ErrorClassNetwork,
			wantMsg:   "Failed to fetch users: context cancelled: context canceled",
		},
		{
			name:      "deadline",
			err:       context.DeadlineExceeded,
			wantClass: ErrorClassNetwork,
			wantMsg:   "Failed to fetch users: context deadline exceeded",
		},
		{
			name:      "anything else",
			err:       errors.New("boom"),
			wantClass: ErrorClassUnknown,
			wantMsg:   "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.wantClass {
				t.Errorf("ClassOf() = %q, want %q", got, tt.wantClass)
			}
			classified := Classify(tt.err)
			if tt.err == nil {
				if classified != nil {
					t.Errorf("Classify(nil) = %v, want nil", classified)
				}
				return
			}
			if classified.Error() != tt.wantMsg {
				t.Errorf("Classify().Error() = %q, want %q", classified.Error(), tt.wantMsg)
			}
		})
	}
}
