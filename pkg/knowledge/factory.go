package knowledge

import (
	"fmt"
	"log/slog"

	"github.com/soundprediction/pathfinder/pkg/config"
)

// NewFromConfig builds the configured backend and wraps it, innermost
// first, with throttling, retries, circuit breaking and caching.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kc := cfg.Knowledge

	var client Client
	switch kc.Backend {
	case config.BackendSPARQL, "":
		client = NewSPARQLClient(SPARQLConfig{
			Endpoint:     kc.Endpoint,
			DefaultGraph: kc.DefaultGraph,
			Limit:        kc.ResultLimit,
			Timeout:      kc.Timeout,
		})
	case config.BackendNeo4j:
		neo, err := NewNeo4jClient(Neo4jConfig{
			URI:               kc.Neo4j.URI,
			Username:          kc.Neo4j.Username,
			Password:          kc.Neo4j.Password,
			Database:          kc.Neo4j.Database,
			URIProperty:       kc.Neo4j.URIProperty,
			RelationNamespace: kc.Neo4j.RelationNamespace,
			Limit:             kc.ResultLimit,
		})
		if err != nil {
			return nil, err
		}
		client = neo
	case config.BackendMemory:
		triples, err := LoadTriplesFile(kc.TriplesFile)
		if err != nil {
			return nil, err
		}
		client = NewMemoryClient(triples)
	default:
		return nil, fmt.Errorf("unsupported knowledge backend: %s", kc.Backend)
	}

	if kc.PolitenessDelay > 0 {
		client = NewThrottledClient(client, kc.PolitenessDelay)
	}

	if cfg.Retry.MaxRetries > 0 {
		client = NewRetryClient(client, &RetryConfig{
			MaxRetries:        cfg.Retry.MaxRetries,
			InitialDelay:      cfg.Retry.InitialDelay,
			MaxDelay:          cfg.Retry.MaxDelay,
			BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		}, logger)
	}

	if cfg.CircuitBreaker.Enabled {
		client = NewCircuitBreakerClient(client, cfg.CircuitBreaker, "knowledge-"+kc.Backend, logger)
	}

	if cfg.Cache.Enabled {
		cached, err := NewCachedClient(client, CacheConfig{
			Dir:           cfg.Cache.Dir,
			InMemory:      cfg.Cache.InMemory,
			TTL:           cfg.Cache.TTL,
			LookupTimeout: kc.Timeout,
		}, logger)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		client = cached
	}

	logger.Debug("knowledge client ready", "backend", kc.Backend, "politeness_delay", kc.PolitenessDelay,
		"retries", cfg.Retry.MaxRetries, "circuit_breaker", cfg.CircuitBreaker.Enabled, "cache", cfg.Cache.Enabled)
	return client, nil
}
