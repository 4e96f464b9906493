package client

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassShape represents payloads that do not match the expected format.
	ErrorClassShape ErrorClass = "shape"

	// ErrorClassUnknown represents anything else.
	ErrorClassUnknown ErrorClass = "unknown"
)

// TransportError is a non-2xx response or a failure to reach the API.
type TransportError struct {
	// StatusCode is the HTTP status, 0 for network failures.
	StatusCode int

	// Status is the HTTP status text (e.g. "Internal Server Error").
	Status string

	// Err is the underlying network error, if any.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch users: %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("Failed to fetch users: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Class returns the error classification.
func (e *TransportError) Class() ErrorClass {
	switch {
	case e.StatusCode == 0:
		return ErrorClassNetwork
	case e.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// ShapeError is a response that does not carry a users array under data.users.
type ShapeError struct {
	// Reason describes what was wrong with the payload.
	Reason string

	// Err is the decoding error, if any.
	Err error
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return "Invalid API response format"
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ShapeError) Unwrap() error {
	return e.Err
}

// UnknownError wraps any failure outside the transport and shape classes.
type UnknownError struct {
	Err error
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UnknownError) Unwrap() error {
	return e.Err
}

// Classify maps err into the client error taxonomy. Errors already in the
// taxonomy are returned unwrapped so their message is the one shown to users.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr
	}

	var shapeErr *ShapeError
	if errors.As(err, &shapeErr) {
		return shapeErr
	}

	var unknownErr *UnknownError
	if errors.As(err, &unknownErr) {
		return unknownErr
	}

	if errors.Is(err, ErrContextCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Err: err}
	}

	return &UnknownError{Err: err}
}

// ClassOf returns the classification of err.
func ClassOf(err error) ErrorClass {
	switch e := Classify(err).(type) {
	case nil:
		return ""
	case *TransportError:
		return e.Class()
	case *ShapeError:
		return ErrorClassShape
	default:
		return ErrorClassUnknown
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	default:
		// 4xx and malformed payloads will not improve on retry
		return false
	}
}
