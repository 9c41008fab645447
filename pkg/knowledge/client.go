package knowledge

import (
	"context"

	"github.com/soundprediction/pathfinder/pkg/types"
)

// Client answers outgoing-link lookups against a knowledge base.
type Client interface {
	// OutgoingLinks returns the (relation, object) pairs leading out of
	// entity. An entity with no outgoing object properties yields an empty
	// slice and a nil error. Failures are reported as *FetchError.
	OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error)

	// Close releases resources held by the client.
	Close() error
}

// Pinger is implemented by clients that can check their backend is
// reachable. The HTTP readiness probe uses it when available.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks c's backend when c supports it; other clients are assumed ready.
func Ping(ctx context.Context, c Client) error {
	if p, ok := c.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
