package explore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soundprediction/pathfinder/pkg/knowledge"
	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/soundprediction/pathfinder/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockKB is a knowledge client over a fixed adjacency that counts lookups.
type mockKB struct {
	mu    sync.Mutex
	adj   map[types.Entity][]types.Link
	calls map[types.Entity]int
	fail  map[types.Entity]error
	delay time.Duration
	block bool
}

// newMockKB builds a client from "subject relation object" lines.
func newMockKB(lines ...string) *mockKB {
	m := &mockKB{
		adj:   make(map[types.Entity][]types.Link),
		calls: make(map[types.Entity]int),
		fail:  make(map[types.Entity]error),
	}
	for _, line := range lines {
		m.add(line)
	}
	return m
}

func (m *mockKB) add(line string) {
	f := strings.Fields(line)
	if len(f) != 3 {
		panic("bad triple line: " + line)
	}
	s := types.Entity(f[0])
	m.adj[s] = append(m.adj[s], types.Link{Relation: types.Relation(f[1]), Object: types.Entity(f[2])})
}

func (m *mockKB) OutgoingLinks(ctx context.Context, e types.Entity) ([]types.Link, error) {
	m.mu.Lock()
	m.calls[e]++
	err := m.fail[e]
	links := append([]types.Link(nil), m.adj[e]...)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, &knowledge.FetchError{Kind: knowledge.KindTimeout, Entity: e, Err: ctx.Err()}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, &knowledge.FetchError{Kind: knowledge.KindTimeout, Entity: e, Err: ctx.Err()}
		}
	}
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (m *mockKB) Close() error { return nil }

func (m *mockKB) callCount(e types.Entity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[e]
}

func (m *mockKB) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockKB) snapshot() map[types.Entity]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[types.Entity]int, len(m.calls))
	for k, v := range m.calls {
		out[k] = v
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(kb knowledge.Client, pool utils.TaskPoolConfig) *Engine {
	return NewEngine(kb, Options{Pool: pool, Logger: discardLogger()})
}

func explore(t *testing.T, e *Engine, source, target types.Entity, budget int) *Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := e.Explore(ctx, source, target, budget)
	require.NoError(t, err)
	require.False(t, res.TimedOut, "exploration did not terminate")
	return res
}

func TestRoundTrip(t *testing.T) {
	kb := newMockKB("A r1 B", "B r2 Z")
	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{}), "A", "Z", 2)

	assert.True(t, res.Found)
	assert.Equal(t, []types.Relation{"r1", "r2"}, res.Relations())
	assert.Equal(t, types.Path{
		{Subject: "A", Relation: "r1", Object: "B"},
		{Subject: "B", Relation: "r2", Object: "Z"},
	}, res.Path)
	assert.NotEmpty(t, res.SessionID)
}

func TestUnreachableWithinBudget(t *testing.T) {
	kb := newMockKB("A r1 B", "B r2 Z")
	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{}), "A", "Z", 1)

	assert.False(t, res.Found)
	assert.Empty(t, res.Relations())
	assert.Equal(t, 0, kb.callCount("B"), "B is at the budget and must not be expanded")
	assert.Equal(t, 2, res.Stats.Vertices)
	assert.Equal(t, int64(1), res.Stats.Pruned)
}

func TestEarlyStop(t *testing.T) {
	kb := newMockKB("A direct Z", "A r1 B", "B r2 C", "C r3 D")
	e := newTestEngine(kb, utils.TaskPoolConfig{})
	s, err := e.NewSession("A", "Z", 3)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, []types.Relation{"direct"}, res.Relations())
	assert.Equal(t, 1, kb.totalCalls(), "no expansion may be scheduled after the target is reached")
	assert.False(t, s.Graph().ContainsVertex("B"))
}

func TestSourceIsTarget(t *testing.T) {
	kb := newMockKB("A r1 B")
	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{}), "A", "A", 2)

	assert.True(t, res.Found)
	assert.Empty(t, res.Relations())
	assert.Equal(t, 0, kb.totalCalls())
}

func TestPrunedSiblingDoesNotStopEvaluation(t *testing.T) {
	// B is pruned at the budget; Z listed after it must still be found.
	kb := newMockKB("A r1 B", "A r2 Z")
	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{}), "A", "Z", 1)

	assert.True(t, res.Found)
	assert.Equal(t, []types.Relation{"r2"}, res.Relations())
}

func TestRepeatedRelationsStayDistinct(t *testing.T) {
	kb := newMockKB("A knows B", "B knows Z")
	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{}), "A", "Z", 2)

	assert.Equal(t, []types.Relation{"knows", "knows"}, res.Relations())
}

// layered builds a graph where every edge goes from layer i to layer i+1,
// so an entity's distance does not depend on discovery order.
func layered(layers, width int, target string) *mockKB {
	kb := newMockKB()
	node := func(l, i int) string {
		if l == 0 {
			return "S"
		}
		return fmt.Sprintf("L%d_%d", l, i)
	}
	for l := 0; l < layers; l++ {
		from := width
		if l == 0 {
			from = 1
		}
		for i := 0; i < from; i++ {
			for j := 0; j < width; j++ {
				kb.add(fmt.Sprintf("%s r%d_%d %s", node(l, i), l, j, node(l+1, j)))
			}
		}
	}
	// the target hangs off every node of the last layer
	for i := 0; i < width; i++ {
		kb.add(fmt.Sprintf("%s last %s", node(layers, i), target))
	}
	// back edges make cycles
	for i := 0; i < width; i++ {
		kb.add(fmt.Sprintf("%s back S", node(layers, i)))
	}
	return kb
}

func TestDeterministicPathLength(t *testing.T) {
	for run := 0; run < 10; run++ {
		kb := layered(3, 4, "T")
		kb.delay = time.Millisecond
		res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{CoreWorkers: 4, MaxWorkers: 8}), "S", "T", 4)

		require.True(t, res.Found)
		require.Equal(t, 4, res.Path.Hops())
		assert.Equal(t, types.Entity("S"), res.Path[0].Subject)
		assert.Equal(t, types.Entity("T"), res.Path[3].Object)
		for i := 1; i < len(res.Path); i++ {
			assert.Equal(t, res.Path[i-1].Object, res.Path[i].Subject)
		}
	}
}

func TestDedupInvariant(t *testing.T) {
	kb := layered(3, 6, "T")
	kb.delay = time.Millisecond
	// T is one hop too far, so the whole budget is explored.
	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{CoreWorkers: 8, MaxWorkers: 16}), "S", "T", 3)

	require.False(t, res.Found)
	for e, n := range kb.snapshot() {
		assert.Equal(t, 1, n, "entity %s fetched %d times", e, n)
	}
	// S plus two full layers are expanded; the third layer sits at the budget.
	assert.Equal(t, 1+6+6, kb.totalCalls())
	assert.Equal(t, int64(kb.totalCalls()), res.Stats.Fetches)
}

func TestHopBoundInvariant(t *testing.T) {
	kb := layered(5, 3, "T")
	e := newTestEngine(kb, utils.TaskPoolConfig{CoreWorkers: 4})
	s, err := e.NewSession("S", "T", 2)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Found)

	g := s.Graph()
	for _, v := range g.Vertices() {
		d, ok := g.ShortestPathLength("S", v)
		require.True(t, ok, "vertex %s is not reachable from the source", v)
		assert.LessOrEqual(t, d, 2, "vertex %s lies beyond the hop budget", v)
	}
	for ent := range kb.snapshot() {
		d, _ := g.ShortestPathLength("S", ent)
		assert.Less(t, d, 2, "entity %s at the budget was expanded", ent)
	}
}

func TestTerminatesOnCycles(t *testing.T) {
	kb := newMockKB("A r B", "B r C", "C r A", "C r D", "D r B")
	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{}), "A", "Z", 10)

	assert.False(t, res.Found)
	assert.Equal(t, 4, kb.totalCalls())
}

func TestFetchErrorIsLeaf(t *testing.T) {
	kb := newMockKB("A r1 B", "A r2 C", "B r3 Z", "C r4 Z")
	kb.fail["B"] = &knowledge.FetchError{Kind: knowledge.KindService, Entity: "B", StatusCode: 503, Err: errors.New("busy")}

	e := newTestEngine(kb, utils.TaskPoolConfig{})

	res := explore(t, e, "A", "Z", 2)
	assert.True(t, res.Found)
	assert.Equal(t, []types.Relation{"r2", "r4"}, res.Relations())

	// with nothing to find, the failed lookup is always observed
	res = explore(t, e, "A", "Q", 2)
	assert.False(t, res.Found)
	assert.Equal(t, int64(1), res.Stats.FetchErrors)
}

func TestFilter(t *testing.T) {
	const res = "http://dbpedia.org/resource/"
	kb := newMockKB(
		res+"A r "+res+"Category:Physicists",
		res+"A r http://example.org/Elsewhere",
		res+"A r "+res+"B",
		res+"B r "+res+"Z",
		res+"Category:Physicists r "+res+"Z",
	)
	e := NewEngine(kb, Options{Filter: DBpediaFilter, Logger: discardLogger()})

	result, err := e.Explore(context.Background(), res+"A", res+"Z", 2)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, 0, kb.callCount(res+"Category:Physicists"))
	assert.Equal(t, 0, kb.callCount("http://example.org/Elsewhere"))
	assert.Equal(t, int64(2), result.Stats.Rejected)
}

func TestInvalidLinkDoesNotClaimObject(t *testing.T) {
	kb := newMockKB("B r2 Z")
	// an empty relation to B arrives before the valid one
	kb.adj["A"] = []types.Link{
		{Relation: "", Object: "B"},
		{Relation: "r1", Object: "B"},
	}

	res := explore(t, newTestEngine(kb, utils.TaskPoolConfig{}), "A", "Z", 2)

	assert.True(t, res.Found)
	assert.Equal(t, []types.Relation{"r1", "r2"}, res.Relations())
	assert.Equal(t, int64(1), res.Stats.Rejected)
	assert.Equal(t, 1, kb.callCount("B"))
}

func TestSaturatedPoolExpandsInline(t *testing.T) {
	kb := newMockKB()
	for i := 0; i < 40; i++ {
		kb.add(fmt.Sprintf("A r%d N%d", i, i))
	}
	kb.add("N39 last Z")

	e := newTestEngine(kb, utils.TaskPoolConfig{
		CoreWorkers:       1,
		MaxWorkers:        1,
		QueueSize:         1,
		SaturationTimeout: time.Millisecond,
	})
	res := explore(t, e, "A", "Z", 2)

	assert.True(t, res.Found)
	assert.Equal(t, []types.Relation{"r39", "last"}, res.Relations())
	for ent, n := range kb.snapshot() {
		assert.Equal(t, 1, n, "entity %s fetched %d times", ent, n)
	}
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	kb := layered(2, 3, "T")
	e := newTestEngine(kb, utils.TaskPoolConfig{CoreWorkers: 2})

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Explore(context.Background(), "S", "T", 3)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	ids := map[string]bool{}
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, res.Found)
		assert.Equal(t, 3, res.Path.Hops())
		ids[res.SessionID] = true
	}
	assert.Len(t, ids, len(results))
}

func TestTimeout(t *testing.T) {
	kb := newMockKB("A r B")
	kb.block = true
	e := NewEngine(kb, Options{Timeout: 50 * time.Millisecond, Logger: discardLogger()})

	start := time.Now()
	res, err := e.Explore(context.Background(), "A", "Z", 2)
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Found)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCancel(t *testing.T) {
	kb := newMockKB("A r B")
	kb.block = true
	e := newTestEngine(kb, utils.TaskPoolConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := e.Explore(ctx, "A", "Z", 2)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.False(t, res.TimedOut)
}

func TestInvalidRequests(t *testing.T) {
	e := newTestEngine(newMockKB(), utils.TaskPoolConfig{})

	_, err := e.NewSession("A", "Z", 0)
	assert.ErrorIs(t, err, ErrInvalidHopBudget)

	_, err = e.NewSession("", "Z", 1)
	assert.ErrorIs(t, err, types.ErrEmptyEntity)

	_, err = e.NewSession("A", " ", 1)
	assert.ErrorIs(t, err, types.ErrEmptyEntity)
}

func TestSessionRunsOnce(t *testing.T) {
	e := newTestEngine(newMockKB("A r Z"), utils.TaskPoolConfig{})
	s, err := e.NewSession("A", "Z", 1, WithSessionID("req-42"))
	require.NoError(t, err)
	assert.Equal(t, "req-42", s.ID())

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "req-42", res.SessionID)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrSessionReused)
}
