package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ClientError is a non-retryable 4xx answer (every 4xx except 429).
type ClientError struct {
	Status int
	Body   []byte
	URL    string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.Status, e.URL)
}

// StatusError is any other non-2xx answer. 429s carry the parsed Retry-After.
type StatusError struct {
	Status     int
	Body       []byte
	URL        string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.Status, e.URL)
}

// TransportExhaustedError is returned once a retryable failure survived every attempt.
type TransportExhaustedError struct {
	Attempts int
	Category Category
	Last     error
}

func (e *TransportExhaustedError) Error() string {
	switch e.Category {
	case RateLimited:
		return fmt.Sprintf("PUBG API rate limit exceeded after %d attempts, wait before retrying", e.Attempts)
	case Timeout:
		return fmt.Sprintf("PUBG API did not answer in time after %d attempts: %v", e.Attempts, e.Last)
	case Reset:
		return fmt.Sprintf("connection to PUBG API was reset after %d attempts, retry now: %v", e.Attempts, e.Last)
	default:
		return fmt.Sprintf("upstream request failed after %d attempts: %v", e.Attempts, e.Last)
	}
}

func (e *TransportExhaustedError) Unwrap() error {
	return e.Last
}

// StatusCode extracts the upstream HTTP status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Status, true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}

func IsStatus(err error, status int) bool {
	code, ok := StatusCode(err)
	return ok && code == status
}
