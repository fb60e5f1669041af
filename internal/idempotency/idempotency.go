// Package idempotency remembers the outcome of requests that carry an
// Idempotency-Key so a retried request replays the first response instead of
// booking twice.
package idempotency

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrInProgress is returned when another request holds the same key.
var ErrInProgress = errors.New("a request with this idempotency key is still being processed")

const (
	statusProcessing = "processing"
	statusDone       = "done"
)

// Response is a recorded HTTP response.
type Response struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Store reserves keys and records their responses.
type Store interface {
	// Reserve claims key for the caller. It returns the recorded response
	// when the key already completed, or ErrInProgress when it is held.
	Reserve(ctx context.Context, key string) (*Response, error)
	// Complete records the response of a reserved key.
	Complete(ctx context.Context, key string, resp Response) error
	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}

type entry struct {
	Status   string    `json:"status"`
	Response *Response `json:"response,omitempty"`
}

// DefaultTTL is how long a completed response is replayed.
const DefaultTTL = 24 * time.Hour
