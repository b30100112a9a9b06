package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// Dispatch error taxonomy.
var (
	ErrRouteNotFound        = errors.New("waypoint: route not found")
	ErrMethodNotAllowed     = errors.New("waypoint: method not allowed")
	ErrUnauthenticated      = errors.New("waypoint: authentication required")
	ErrForbidden            = errors.New("waypoint: forbidden")
	ErrHandlerFault         = errors.New("waypoint: handler fault")
	ErrMalformedRouteSource = errors.New("waypoint: malformed route source")
)

// HTTPError is a deliberate non-200 outcome returned by a handler.
// The kernel renders Code and Message; Err is only logged.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Details is rendered under error.details in the JSON envelope.
	Details any

	// Message is the user-facing error message.
	Message string

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError. An empty message defaults to the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithDetails attaches structured details.
func WithDetails(details any) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Details = details
	}
}

// WithError attaches the underlying cause.
func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

// AsHTTPError extracts an HTTPError from err's chain, or returns nil.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// PanicError carries a value recovered from a panicking handler or guard.
type PanicError struct {
	Value any    // The panic value
	Stack []byte // Stack trace (nil if not captured)
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap lets errors.Is(err, ErrHandlerFault) match recovered panics.
func (e *PanicError) Unwrap() error {
	return ErrHandlerFault
}
