package fetch

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ClassTransient covers failures expected to resolve on retry:
	// HTTP 429/5xx, transport errors, and undecodable bodies.
	ClassTransient ErrorClass = "transient"

	// ClassNotFound covers HTTP 404 and 403. The pricing API answers both
	// for slugs it does not know, so callers treat them as "no data".
	ClassNotFound ErrorClass = "not_found"

	// ClassOther covers the remaining HTTP statuses.
	ClassOther ErrorClass = "other"
)

// StatusError is returned for any HTTP response with status >= 400.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Class returns the retry classification for the status code.
func (e *StatusError) Class() ErrorClass {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return ClassTransient
	case 404, 403:
		return ClassNotFound
	default:
		return ClassOther
	}
}

// Error wraps the last failure after all attempts are exhausted.
type Error struct {
	URL      string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify categorizes an error for retry decisions and observability.
// Errors without an HTTP status (timeouts, connection resets, decode
// failures) are transient.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Class()
	}
	return ClassTransient
}

// IsNotFound reports whether err stems from an HTTP 404 or 403.
func IsNotFound(err error) bool {
	return Classify(err) == ClassNotFound
}

// IsTransient reports whether err belongs to the retriable failure class.
func IsTransient(err error) bool {
	return Classify(err) == ClassTransient
}
