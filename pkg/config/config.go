package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Supported knowledge-base backends.
const (
	BackendSPARQL = "sparql"
	BackendNeo4j  = "neo4j"
	BackendMemory = "memory"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Knowledge-base client configuration
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`

	// Exploration engine configuration
	Explore ExploreConfig `mapstructure:"explore"`

	// Retry configuration for knowledge-base lookups
	Retry RetryConfig `mapstructure:"retry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// Cache configuration for knowledge-base lookups
	Cache CacheConfig `mapstructure:"cache"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// KnowledgeConfig selects and configures the knowledge-base backend.
type KnowledgeConfig struct {
	Backend         string        `mapstructure:"backend"` // sparql, neo4j, memory
	Endpoint        string        `mapstructure:"endpoint"`
	DefaultGraph    string        `mapstructure:"default_graph"`
	ResultLimit     int           `mapstructure:"result_limit"`
	Timeout         time.Duration `mapstructure:"timeout"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"`
	ResourcePrefix  string        `mapstructure:"resource_prefix"`
	CategoryPrefix  string        `mapstructure:"category_prefix"`
	TriplesFile     string        `mapstructure:"triples_file"`
	Neo4j           Neo4jConfig   `mapstructure:"neo4j"`
}

// Neo4jConfig holds connection settings for a knowledge base hosted in Neo4j.
type Neo4jConfig struct {
	URI               string `mapstructure:"uri"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	URIProperty       string `mapstructure:"uri_property"`
	RelationNamespace string `mapstructure:"relation_namespace"`
}

// ExploreConfig holds worker pool and run settings.
type ExploreConfig struct {
	MaxHops           int           `mapstructure:"max_hops"`
	CoreWorkers       int           `mapstructure:"core_workers"`
	MaxWorkers        int           `mapstructure:"max_workers"`
	QueueSize         int           `mapstructure:"queue_size"`
	KeepAlive         time.Duration `mapstructure:"keep_alive"`
	SaturationTimeout time.Duration `mapstructure:"saturation_timeout"`
	Timeout           time.Duration `mapstructure:"timeout"` // 0 disables the per-run timeout
}

// RetryConfig holds retry settings for transient lookup failures
type RetryConfig struct {
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialDelay      time.Duration `mapstructure:"initial_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// CacheConfig holds configuration for the lookup cache
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Dir      string        `mapstructure:"dir"`
	InMemory bool          `mapstructure:"in_memory"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"` // empty disables error recording
}

// Load loads configuration from the global viper instance, which the CLI
// fills from the config file, flags and environment variables.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from v after applying defaults.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	// Knowledge defaults follow the public DBpedia endpoint
	v.SetDefault("knowledge.backend", BackendSPARQL)
	v.SetDefault("knowledge.endpoint", "https://dbpedia.org/sparql")
	v.SetDefault("knowledge.default_graph", "")
	v.SetDefault("knowledge.result_limit", 500)
	v.SetDefault("knowledge.timeout", "30s")
	v.SetDefault("knowledge.politeness_delay", "300ms")
	v.SetDefault("knowledge.resource_prefix", "http://dbpedia.org/resource/")
	v.SetDefault("knowledge.category_prefix", "http://dbpedia.org/resource/Category:")
	v.SetDefault("knowledge.triples_file", "")
	v.SetDefault("knowledge.neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("knowledge.neo4j.username", "neo4j")
	v.SetDefault("knowledge.neo4j.password", "")
	v.SetDefault("knowledge.neo4j.database", "neo4j")
	v.SetDefault("knowledge.neo4j.uri_property", "uri")
	v.SetDefault("knowledge.neo4j.relation_namespace", "")

	// Explore defaults
	v.SetDefault("explore.max_hops", 2)
	v.SetDefault("explore.core_workers", 5)
	v.SetDefault("explore.max_workers", 10)
	v.SetDefault("explore.queue_size", 1024)
	v.SetDefault("explore.keep_alive", "5s")
	v.SetDefault("explore.saturation_timeout", "2s")
	v.SetDefault("explore.timeout", "0s")

	// Retry defaults
	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.initial_delay", "1s")
	v.SetDefault("retry.max_delay", "10s")
	v.SetDefault("retry.backoff_multiplier", 2.0)

	// Circuit breaker defaults
	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", 60)
	v.SetDefault("circuit_breaker.timeout", 30)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.in_memory", true)
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("telemetry.parquet_path", "")
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Knowledge.Neo4j.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Knowledge.Neo4j.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Knowledge.Neo4j.Password = pass
	}

	if endpoint := os.Getenv("SPARQL_ENDPOINT"); endpoint != "" {
		config.Knowledge.Endpoint = endpoint
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	switch c.Knowledge.Backend {
	case BackendSPARQL:
		if c.Knowledge.Endpoint == "" {
			return fmt.Errorf("%w: knowledge.endpoint is required for the sparql backend", ErrInvalidConfig)
		}
	case BackendNeo4j:
		if c.Knowledge.Neo4j.URI == "" {
			return fmt.Errorf("%w: knowledge.neo4j.uri is required for the neo4j backend", ErrInvalidConfig)
		}
	case BackendMemory:
		if c.Knowledge.TriplesFile == "" {
			return fmt.Errorf("%w: knowledge.triples_file is required for the memory backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported knowledge backend %q", ErrInvalidConfig, c.Knowledge.Backend)
	}

	if c.Knowledge.PolitenessDelay < 0 {
		return fmt.Errorf("%w: knowledge.politeness_delay must not be negative", ErrInvalidConfig)
	}
	if c.Explore.MaxHops < 1 {
		return fmt.Errorf("%w: explore.max_hops must be positive, got %d", ErrInvalidConfig, c.Explore.MaxHops)
	}
	if c.Explore.CoreWorkers < 1 {
		return fmt.Errorf("%w: explore.core_workers must be positive, got %d", ErrInvalidConfig, c.Explore.CoreWorkers)
	}
	if c.Explore.MaxWorkers < c.Explore.CoreWorkers {
		return fmt.Errorf("%w: explore.max_workers (%d) is below explore.core_workers (%d)",
			ErrInvalidConfig, c.Explore.MaxWorkers, c.Explore.CoreWorkers)
	}
	if c.Explore.QueueSize < 1 {
		return fmt.Errorf("%w: explore.queue_size must be positive, got %d", ErrInvalidConfig, c.Explore.QueueSize)
	}
	if c.Cache.Enabled && !c.Cache.InMemory && c.Cache.Dir == "" {
		return fmt.Errorf("%w: cache.dir is required when the cache is on disk", ErrInvalidConfig)
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}
