package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/soundprediction/pathfinder/pkg/types"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 2)
	MaxRetries int
	// InitialDelay is the initial delay before the first retry (default: 1 second)
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 10 seconds)
	MaxDelay time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff (default: 2.0)
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        2,
		InitialDelay:      1 * time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps a Client and retries transient failures with
// exponential backoff. Malformed responses and 4xx answers are not retried.
type RetryClient struct {
	client Client
	config *RetryConfig
	logger *slog.Logger
}

// NewRetryClient creates a new retry client wrapper
func NewRetryClient(client Client, config *RetryConfig, logger *slog.Logger) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 1 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 10 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RetryClient{
		client: client,
		config: config,
		logger: logger,
	}
}

// OutgoingLinks implements Client with retry logic
func (r *RetryClient) OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.calculateDelay(attempt)
			r.logger.Debug("retrying lookup", "entity", entity, "attempt", attempt, "delay", delay, "error", lastErr)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, classify(entity, fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err()))
			}
		}

		links, err := r.client.OutgoingLinks(ctx, entity)
		if err == nil {
			return links, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryableError(err) {
			return nil, err
		}
	}

	// All retries exhausted; keep the last FetchError so callers can classify it.
	fe := classify(entity, lastErr)
	return nil, &FetchError{
		Kind:       fe.Kind,
		Entity:     entity,
		StatusCode: fe.StatusCode,
		Err:        fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, fe.Err),
	}
}

// Ping implements Pinger.
func (r *RetryClient) Ping(ctx context.Context) error {
	return Ping(ctx, r.client)
}

// Close implements Client
func (r *RetryClient) Close() error {
	return r.client.Close()
}

// calculateDelay calculates the delay for a given retry attempt using exponential backoff
func (r *RetryClient) calculateDelay(attempt int) time.Duration {
	// InitialDelay * (BackoffMultiplier ^ (attempt - 1))
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	return time.Duration(delay)
}
