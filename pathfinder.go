package pathfinder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/soundprediction/pathfinder/pkg/config"
	"github.com/soundprediction/pathfinder/pkg/explore"
	"github.com/soundprediction/pathfinder/pkg/knowledge"
	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/soundprediction/pathfinder/pkg/utils"
)

var (
	// ErrInvalidHopBudget is returned when MaxHops is below one.
	ErrInvalidHopBudget = explore.ErrInvalidHopBudget
	// ErrEmptyEntity is returned when the source or target is blank.
	ErrEmptyEntity = types.ErrEmptyEntity
	// ErrNilKnowledgeClient is returned by NewClient without a knowledge client.
	ErrNilKnowledgeClient = errors.New("knowledge client is required")
)

// Result is the outcome of a FindPath call.
type Result = explore.Result

// Config holds configuration for the pathfinder client.
type Config struct {
	// ResourcePrefix is prepended to entity names that are not full URIs
	ResourcePrefix string
	// Filter selects the link objects that are explored
	Filter explore.Filter
	// Pool sizes the worker pool of each request
	Pool utils.TaskPoolConfig
	// Timeout bounds each request; zero leaves it to the caller's context
	Timeout time.Duration
}

// DefaultConfig returns the configuration for exploring DBpedia.
func DefaultConfig() *Config {
	return &Config{
		ResourcePrefix: explore.DBpediaFilter.ResourcePrefix,
		Filter:         explore.DBpediaFilter,
		Pool:           utils.DefaultTaskPoolConfig(),
	}
}

// Request describes one path search.
type Request struct {
	Source  string `json:"source" yaml:"source" binding:"required"`
	Target  string `json:"target" yaml:"target" binding:"required"`
	MaxHops int    `json:"max_hops" yaml:"max_hops"`
	// SessionID tags the run in logs and results; generated when empty
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

// Client is the main implementation of the PathFinder interface.
type Client struct {
	knowledge knowledge.Client
	engine    *explore.Engine
	config    *Config
	logger    *slog.Logger
}

// NewClient creates a client exploring kb.
func NewClient(kb knowledge.Client, cfg *Config, logger *slog.Logger) (*Client, error) {
	if kb == nil {
		return nil, ErrNilKnowledgeClient
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	engine := explore.NewEngine(kb, explore.Options{
		Filter:  cfg.Filter,
		Pool:    cfg.Pool,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})

	return &Client{
		knowledge: kb,
		engine:    engine,
		config:    cfg,
		logger:    logger,
	}, nil
}

// NewFromConfig builds the knowledge client described by cfg and a Client
// around it.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	kb, err := knowledge.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge client: %w", err)
	}

	return NewClient(kb, ConfigFrom(cfg), logger)
}

// ConfigFrom converts application configuration to client configuration.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		ResourcePrefix: cfg.Knowledge.ResourcePrefix,
		Filter: explore.Filter{
			ResourcePrefix: cfg.Knowledge.ResourcePrefix,
			CategoryPrefix: cfg.Knowledge.CategoryPrefix,
		},
		Pool: utils.TaskPoolConfig{
			CoreWorkers:       cfg.Explore.CoreWorkers,
			MaxWorkers:        cfg.Explore.MaxWorkers,
			QueueSize:         cfg.Explore.QueueSize,
			KeepAlive:         cfg.Explore.KeepAlive,
			SaturationTimeout: cfg.Explore.SaturationTimeout,
		},
		Timeout: cfg.Explore.Timeout,
	}
}

// Resolve turns a user-supplied name into an entity. Full URIs are kept;
// other names get the resource prefix, with spaces replaced by underscores.
func (c *Client) Resolve(name string) types.Entity {
	name = strings.TrimSpace(name)
	if name == "" || c.config.ResourcePrefix == "" || strings.Contains(name, "://") || strings.HasPrefix(name, "urn:") {
		return types.Entity(name)
	}
	return types.Entity(c.config.ResourcePrefix + strings.ReplaceAll(name, " ", "_"))
}

// FindPath implements PathFinder.
func (c *Client) FindPath(ctx context.Context, req Request) (*Result, error) {
	source := c.Resolve(req.Source)
	target := c.Resolve(req.Target)

	var opts []explore.SessionOption
	if req.SessionID != "" {
		opts = append(opts, explore.WithSessionID(req.SessionID))
	} else if id, ok := ctx.Value(types.ContextKeySessionID).(string); ok {
		opts = append(opts, explore.WithSessionID(id))
	}

	session, err := c.engine.NewSession(source, target, req.MaxHops, opts...)
	if err != nil {
		return nil, err
	}
	return session.Run(ctx)
}

// Ping implements PathFinder.
func (c *Client) Ping(ctx context.Context) error {
	return knowledge.Ping(ctx, c.knowledge)
}

// Close closes the knowledge client.
func (c *Client) Close() error {
	return c.knowledge.Close()
}
