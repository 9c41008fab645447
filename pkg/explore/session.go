package explore

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soundprediction/pathfinder/pkg/graph"
	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/soundprediction/pathfinder/pkg/utils"
)

// State is the stage an expansion or one of its links has reached.
type State int

const (
	StatePending State = iota
	StateFetching
	StateEvaluating
	StateExpanded
	StatePruned
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateEvaluating:
		return "evaluating"
	case StateExpanded:
		return "expanded"
	case StatePruned:
		return "pruned"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Stats summarizes the work done by one session.
type Stats struct {
	Fetches     int64         `json:"fetches" yaml:"fetches"`
	FetchErrors int64         `json:"fetch_errors" yaml:"fetch_errors"`
	Rejected    int64         `json:"rejected" yaml:"rejected"`
	Admitted    int64         `json:"admitted" yaml:"admitted"`
	Expanded    int64         `json:"expanded" yaml:"expanded"`
	Pruned      int64         `json:"pruned" yaml:"pruned"`
	Vertices    int           `json:"vertices" yaml:"vertices"`
	Edges       int           `json:"edges" yaml:"edges"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Result is the outcome of a session.
type Result struct {
	SessionID string       `json:"session_id" yaml:"session_id"`
	Source    types.Entity `json:"source" yaml:"source"`
	Target    types.Entity `json:"target" yaml:"target"`
	HopBudget int          `json:"max_hops" yaml:"max_hops"`
	Found     bool         `json:"found" yaml:"found"`
	Path      types.Path   `json:"path" yaml:"path"`
	TimedOut  bool         `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`
	Stats     Stats        `json:"stats" yaml:"stats"`
}

// Relations returns the relation sequence of the path found.
func (r *Result) Relations() []types.Relation {
	return r.Path.Relations()
}

// Session owns all mutable state of one exploration: the explored graph,
// the visited set, the found signal and the task pool.
type Session struct {
	id        string
	engine    *Engine
	source    types.Entity
	target    types.Entity
	hopBudget int
	logger    *slog.Logger

	graph   *graph.Graph
	visited *VisitedSet
	signal  *Signal
	pool    *utils.TaskPool
	cancel  context.CancelFunc
	ran     atomic.Bool

	fetches     atomic.Int64
	fetchErrors atomic.Int64
	rejected    atomic.Int64
	admitted    atomic.Int64
	expanded    atomic.Int64
	pruned      atomic.Int64
}

func newSession(e *Engine, source, target types.Entity, hopBudget int) *Session {
	return &Session{
		engine:    e,
		source:    source,
		target:    target,
		hopBudget: hopBudget,
		graph:     graph.New(),
		visited:   NewVisitedSet(),
		signal:    NewSignal(),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Graph returns the graph explored so far.
func (s *Session) Graph() *graph.Graph {
	return s.graph
}

// Run explores from the source until the target is found, the frontier is
// exhausted or ctx is done. It blocks until every worker has returned, so
// the result reflects a settled graph. A deadline yields a partial result
// flagged TimedOut; any other cancellation also returns ctx's error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, ErrSessionReused
	}
	start := time.Now()
	ctx = context.WithValue(ctx, types.ContextKeySessionID, s.id)

	if s.engine.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, s.engine.timeout)
		defer cancelTimeout()
	}

	s.graph.AddVertex(s.source)
	s.visited.TryAdmit(s.source)
	s.logger.DebugContext(ctx, "exploration started", "max_hops", s.hopBudget)

	if s.source == s.target {
		s.signal.Fire()
		return s.finish(ctx, start, nil), nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel
	s.pool = utils.NewTaskPool(runCtx, s.engine.pool, s.logger)

	s.submit(runCtx, s.source)

	var runErr error
	select {
	case <-s.pool.Idle():
	case <-s.signal.Done():
	case <-ctx.Done():
		runErr = ctx.Err()
	}
	if s.signal.Fired() {
		runErr = nil
	}

	s.pool.Stop()
	return s.finish(ctx, start, runErr), nonDeadline(runErr)
}

func (s *Session) finish(ctx context.Context, start time.Time, runErr error) *Result {
	found := s.signal.Fired()
	path := types.Path{}
	if found {
		path = ExtractPath(s.graph, s.source, s.target)
	}

	res := &Result{
		SessionID: s.id,
		Source:    s.source,
		Target:    s.target,
		HopBudget: s.hopBudget,
		Found:     found,
		Path:      path,
		TimedOut:  !found && errors.Is(runErr, context.DeadlineExceeded),
		Stats: Stats{
			Fetches:     s.fetches.Load(),
			FetchErrors: s.fetchErrors.Load(),
			Rejected:    s.rejected.Load(),
			Admitted:    s.admitted.Load(),
			Expanded:    s.expanded.Load(),
			Pruned:      s.pruned.Load(),
			Vertices:    s.graph.VertexCount(),
			Edges:       s.graph.EdgeCount(),
			Duration:    time.Since(start),
		},
	}

	outcome := outcomeNotFound
	switch {
	case found:
		outcome = outcomeFound
	case res.TimedOut:
		outcome = outcomeTimeout
	case runErr != nil:
		outcome = outcomeCancelled
	}
	sessionsTotal.WithLabelValues(outcome).Inc()
	sessionDuration.WithLabelValues(outcome).Observe(res.Stats.Duration.Seconds())

	s.logger.InfoContext(ctx, "exploration finished",
		"outcome", outcome,
		"hops", path.Hops(),
		"fetches", res.Stats.Fetches,
		"vertices", res.Stats.Vertices,
		"duration", res.Stats.Duration)
	return res
}

// submit schedules expand(node). When the pool stays saturated the expansion
// runs on the calling goroutine instead.
func (s *Session) submit(ctx context.Context, node types.Entity) {
	err := s.pool.Submit(func(taskCtx context.Context) {
		s.expand(taskCtx, node)
	})
	switch {
	case err == nil:
	case errors.Is(err, utils.ErrPoolSaturated):
		s.logger.DebugContext(ctx, "pool saturated, expanding inline", "entity", node)
		s.expand(ctx, node)
	default:
		s.logger.DebugContext(ctx, "expansion not scheduled", "entity", node, "error", err)
	}
}

func (s *Session) expand(ctx context.Context, node types.Entity) {
	if s.signal.Fired() {
		return
	}

	s.logState(ctx, node, StateFetching)
	s.fetches.Add(1)
	links, err := s.engine.client.OutgoingLinks(ctx, node)

	if s.signal.Fired() || ctx.Err() != nil {
		fetchesTotal.WithLabelValues(fetchDiscarded).Inc()
		return
	}
	if err != nil {
		s.fetchErrors.Add(1)
		fetchesTotal.WithLabelValues(fetchError).Inc()
		s.logger.WarnContext(ctx, "lookup failed, treating entity as a leaf", "entity", node, "error", err)
		return
	}
	fetchesTotal.WithLabelValues(fetchOK).Inc()

	s.logState(ctx, node, StateEvaluating, "links", len(links))
	for _, link := range links {
		if s.evaluate(ctx, node, link) {
			return
		}
	}
}

// evaluate processes one link of node and reports whether evaluation of the
// remaining links should stop.
func (s *Session) evaluate(ctx context.Context, node types.Entity, link types.Link) bool {
	obj := link.Object
	t := types.Triple{Subject: node, Relation: link.Relation, Object: obj}
	// Invalid links must not claim obj, or a valid link to it would be
	// dropped as a duplicate.
	if err := t.Validate(); err != nil {
		s.rejected.Add(1)
		linksTotal.WithLabelValues("invalid").Inc()
		s.logger.WarnContext(ctx, "skipping invalid link", "entity", node, "relation", link.Relation, "error", err)
		return false
	}
	if !s.engine.filter.Accept(obj) {
		s.rejected.Add(1)
		linksTotal.WithLabelValues("rejected").Inc()
		return false
	}
	if !s.visited.TryAdmit(obj) {
		linksTotal.WithLabelValues("duplicate").Inc()
		return s.signal.Fired()
	}
	s.admitted.Add(1)

	if err := s.graph.AddTriple(t); err != nil {
		s.logger.WarnContext(ctx, "failed to record link", "entity", node, "relation", link.Relation, "error", err)
		return false
	}

	if obj == s.target {
		linksTotal.WithLabelValues(StateTerminal.String()).Inc()
		s.logState(ctx, obj, StateTerminal, "relation", link.Relation)
		if s.signal.Fire() {
			s.pool.Halt()
			s.cancel()
		}
		return true
	}

	// Objects at the budget stay in the graph but their links would overshoot it.
	d, ok := s.graph.ShortestPathLength(s.source, obj)
	if !ok || d >= s.hopBudget {
		s.pruned.Add(1)
		linksTotal.WithLabelValues(StatePruned.String()).Inc()
		s.logState(ctx, obj, StatePruned, "distance", d)
		return s.signal.Fired()
	}

	s.expanded.Add(1)
	linksTotal.WithLabelValues(StateExpanded.String()).Inc()
	s.logState(ctx, obj, StateExpanded, "distance", d)
	s.submit(ctx, obj)
	return s.signal.Fired()
}

func (s *Session) logState(ctx context.Context, node types.Entity, state State, args ...any) {
	if !s.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	s.logger.DebugContext(ctx, "expansion state", append([]any{"entity", node, "state", state.String()}, args...)...)
}

func nonDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
