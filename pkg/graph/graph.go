package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/soundprediction/pathfinder/pkg/types"
)

// ErrGraphInconsistency is returned when an edge references an endpoint that
// is not a vertex of the graph.
var ErrGraphInconsistency = errors.New("graph: edge endpoint is not a vertex")

// edge is one outgoing labeled edge stored in a vertex's adjacency list.
type edge struct {
	relation types.Relation
	to       types.Entity
}

// Graph is a thread-safe, append-only directed graph whose edges are labeled
// with relations. A single RWMutex guards all state; no I/O happens while it
// is held.
type Graph struct {
	mu      sync.RWMutex
	adj     map[types.Entity][]edge
	triples map[types.Triple]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		adj:     make(map[types.Entity][]edge),
		triples: make(map[types.Triple]struct{}),
	}
}

// AddVertex adds e to the graph if it is absent.
func (g *Graph) AddVertex(e types.Entity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addVertexLocked(e)
}

// AddTriple adds the subject and object as vertices if absent and then the
// labeled edge subject -relation-> object. The whole insertion happens under
// one write lock, so readers never observe a half-inserted triple. Adding an
// identical triple twice is a no-op.
func (g *Graph) AddTriple(t types.Triple) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("add triple: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.addVertexLocked(t.Subject)
	g.addVertexLocked(t.Object)
	return g.addEdgeLocked(t)
}

// AddEdge adds the labeled edge for t. Both endpoints must already be
// vertices, otherwise ErrGraphInconsistency is returned.
func (g *Graph) AddEdge(t types.Triple) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("add edge: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addEdgeLocked(t)
}

func (g *Graph) addVertexLocked(e types.Entity) {
	if _, ok := g.adj[e]; !ok {
		g.adj[e] = nil
	}
}

func (g *Graph) addEdgeLocked(t types.Triple) error {
	if _, ok := g.adj[t.Subject]; !ok {
		return fmt.Errorf("%w: %s", ErrGraphInconsistency, t.Subject)
	}
	if _, ok := g.adj[t.Object]; !ok {
		return fmt.Errorf("%w: %s", ErrGraphInconsistency, t.Object)
	}
	if _, dup := g.triples[t]; dup {
		return nil
	}
	g.triples[t] = struct{}{}
	g.adj[t.Subject] = append(g.adj[t.Subject], edge{relation: t.Relation, to: t.Object})
	return nil
}

// ContainsVertex reports whether e is a vertex of the graph.
func (g *Graph) ContainsVertex(e types.Entity) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adj[e]
	return ok
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adj)
}

// EdgeCount returns the number of distinct labeled edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.triples)
}

// Vertices returns a sorted snapshot of all vertices.
func (g *Graph) Vertices() []types.Entity {
	g.mu.RLock()
	out := make([]types.Entity, 0, len(g.adj))
	for v := range g.adj {
		out = append(out, v)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Triples returns a snapshot of every edge as a triple, sorted by subject,
// relation and object.
func (g *Graph) Triples() []types.Triple {
	g.mu.RLock()
	out := make([]types.Triple, 0, len(g.triples))
	for t := range g.triples {
		out = append(out, t)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Relation != out[j].Relation {
			return out[i].Relation < out[j].Relation
		}
		return out[i].Object < out[j].Object
	})
	return out
}

// ShortestPathLength returns the minimum number of semantic hops on any
// directed path from -> to in the current snapshot. The boolean is false when
// to is unreachable, including when either endpoint is missing.
func (g *Graph) ShortestPathLength(from, to types.Entity) (int, bool) {
	path, ok := g.ShortestPath(from, to)
	if !ok {
		return 0, false
	}
	return path.Hops(), true
}

// ShortestPath returns one shortest path from -> to as an ordered list of
// triples. When several shortest paths exist, which one is returned depends
// on edge insertion order; callers must not rely on a particular choice.
func (g *Graph) ShortestPath(from, to types.Entity) (types.Path, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.adj[from]; !ok {
		return nil, false
	}
	if _, ok := g.adj[to]; !ok {
		return nil, false
	}
	if from == to {
		return types.Path{}, true
	}

	// parent records the triple used to first reach each vertex.
	parent := map[types.Entity]types.Triple{}
	visited := map[types.Entity]bool{from: true}
	queue := []types.Entity{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range g.adj[cur] {
			if visited[e.to] {
				continue
			}
			visited[e.to] = true
			parent[e.to] = types.Triple{Subject: cur, Relation: e.relation, Object: e.to}
			if e.to == to {
				return buildPath(parent, from, to), true
			}
			queue = append(queue, e.to)
		}
	}

	return nil, false
}

func buildPath(parent map[types.Entity]types.Triple, from, to types.Entity) types.Path {
	var rev types.Path
	for cur := to; cur != from; {
		t := parent[cur]
		rev = append(rev, t)
		cur = t.Subject
	}

	path := make(types.Path, len(rev))
	for i, t := range rev {
		path[len(rev)-1-i] = t
	}
	return path
}
