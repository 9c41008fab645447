package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/pathfinder/pkg/config"
	"github.com/soundprediction/pathfinder/pkg/types"
)

// CircuitBreakerClient wraps a Client with circuit breaking logic
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
	name   string
}

// NewCircuitBreakerClient creates a new circuit breaker client
func NewCircuitBreakerClient(client Client, cfg config.CircuitBreakerConfig, name string, logger *slog.Logger) *CircuitBreakerClient {
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		// Bad payloads and cancelled lookups say nothing about endpoint health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrMalformed) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Warn("circuit breaker tripped, too many failed lookups",
					"breaker", name, "from", from.String(), "to", to.String())
				return
			}
			logger.Info("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
		name:   name,
	}
}

// OutgoingLinks implements Client
func (c *CircuitBreakerClient) OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.OutgoingLinks(ctx, entity)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &FetchError{Kind: KindService, Entity: entity, Err: err}
		}
		return nil, err
	}
	return resp.([]types.Link), nil
}

// State returns the current breaker state.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.cb.State()
}

// Ping implements Pinger.
func (c *CircuitBreakerClient) Ping(ctx context.Context) error {
	return Ping(ctx, c.client)
}

// Close implements Client
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}
