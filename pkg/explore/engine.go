package explore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/pathfinder/pkg/knowledge"
	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/soundprediction/pathfinder/pkg/utils"
)

var (
	// ErrInvalidHopBudget is returned for hop budgets below one
	ErrInvalidHopBudget = errors.New("hop budget must be at least 1")

	// ErrSessionReused is returned when Run is called twice on one session
	ErrSessionReused = errors.New("session has already run")
)

// Options configures an Engine.
type Options struct {
	Filter Filter
	Pool   utils.TaskPoolConfig
	// Timeout bounds a single run. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Engine creates exploration sessions against one knowledge client. It holds
// no per-run state, so concurrent sessions never interfere.
type Engine struct {
	client  knowledge.Client
	filter  Filter
	pool    utils.TaskPoolConfig
	timeout time.Duration
	logger  *slog.Logger
}

// NewEngine creates an engine.
func NewEngine(client knowledge.Client, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		client:  client,
		filter:  opts.Filter,
		pool:    opts.Pool,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// SessionOption customizes a session.
type SessionOption func(*Session)

// WithSessionID sets the session id instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// NewSession validates the request and prepares a session for it.
func (e *Engine) NewSession(source, target types.Entity, hopBudget int, opts ...SessionOption) (*Session, error) {
	if source.IsZero() || target.IsZero() {
		return nil, types.ErrEmptyEntity
	}
	if hopBudget < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHopBudget, hopBudget)
	}

	s := newSession(e, source, target, hopBudget)
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.New().String()
	}
	s.logger = e.logger.With("session_id", s.id, "source", source, "target", target)
	return s, nil
}

// Explore runs a fresh session and returns its result.
func (e *Engine) Explore(ctx context.Context, source, target types.Entity, hopBudget int, opts ...SessionOption) (*Result, error) {
	s, err := e.NewSession(source, target, hopBudget, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
