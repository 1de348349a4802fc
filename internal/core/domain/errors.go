package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCircuitOpen   = errors.New("circuit breaker open")
	ErrEditInFlight  = errors.New("edit already reconciling for this cell")
	ErrInvalidImport = errors.New("import document must be a JSON array")
	ErrUnknownField  = errors.New("unknown field")
	ErrNotEditable   = errors.New("field is not editable")
)

// ConfigurationError reports a programmer error in endpoint or proxy
// configuration. It is never retried.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

// TimeoutError reports an attempt aborted by the per-request timeout.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("request timed out: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkUnreachableError reports that the server could not be reached.
type NetworkUnreachableError struct {
	Err error
}

func (e *NetworkUnreachableError) Error() string {
	return fmt.Sprintf("could not connect: %v", e.Err)
}
func (e *NetworkUnreachableError) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// ParseError reports a response body that is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("malformed response body: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports client-side input rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// IsTransient reports whether err is likely to succeed on retry. Only
// timeouts and unreachable-network failures qualify.
func IsTransient(err error) bool {
	var te *TimeoutError
	var ne *NetworkUnreachableError
	return errors.As(err, &te) || errors.As(err, &ne)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPStatusError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}
