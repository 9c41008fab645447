package knowledge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/soundprediction/pathfinder/pkg/types"
)

// Lookup failure classes. A *FetchError matches exactly one of these with errors.Is.
var (
	// ErrTimeout indicates the lookup did not finish in time
	ErrTimeout = errors.New("knowledge base lookup timed out")

	// ErrNetwork indicates the knowledge base could not be reached
	ErrNetwork = errors.New("knowledge base unreachable")

	// ErrMalformed indicates the knowledge base answered with something that could not be decoded
	ErrMalformed = errors.New("malformed knowledge base response")

	// ErrService indicates the knowledge base rejected or failed the query
	ErrService = errors.New("knowledge base service error")
)

// Kind classifies a FetchError.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindMalformed
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindTimeout:
		return ErrTimeout
	case KindMalformed:
		return ErrMalformed
	case KindService:
		return ErrService
	default:
		return nil
	}
}

// FetchError describes a failed outgoing-link lookup.
type FetchError struct {
	Kind       Kind
	Entity     types.Entity
	StatusCode int // HTTP status for service errors, 0 otherwise
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s error (status %d): %v", e.Entity, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.Entity, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support against the Err* sentinels and against
// other *FetchError values of the same kind.
func (e *FetchError) Is(target error) bool {
	if other, ok := target.(*FetchError); ok {
		return other.Kind == e.Kind
	}
	return target != nil && target == e.Kind.sentinel()
}

// Retryable reports whether repeating the lookup may succeed.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindService:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// classify wraps a transport-level error in a FetchError. Existing
// FetchErrors pass through unchanged.
func classify(entity types.Entity, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	kind := KindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, Entity: entity, Err: err}
}

// isRetryableError determines if an error is retryable
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return false
}
