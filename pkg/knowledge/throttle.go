package knowledge

import (
	"context"
	"time"

	"github.com/soundprediction/pathfinder/pkg/types"
	"golang.org/x/time/rate"
)

// DefaultPolitenessDelay is the minimum interval between lookups sent to a
// public endpoint.
const DefaultPolitenessDelay = 300 * time.Millisecond

// ThrottledClient spaces successive lookups at least delay apart, across
// every goroutine sharing the client.
type ThrottledClient struct {
	client  Client
	limiter *rate.Limiter
}

// NewThrottledClient wraps client with a politeness delay. A non-positive
// delay disables throttling.
func NewThrottledClient(client Client, delay time.Duration) *ThrottledClient {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &ThrottledClient{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// OutgoingLinks implements Client.
func (t *ThrottledClient) OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &FetchError{Kind: KindTimeout, Entity: entity, Err: err}
	}
	return t.client.OutgoingLinks(ctx, entity)
}

// Ping implements Pinger without consuming a throttle slot.
func (t *ThrottledClient) Ping(ctx context.Context) error {
	return Ping(ctx, t.client)
}

// Close implements Client.
func (t *ThrottledClient) Close() error {
	return t.client.Close()
}
