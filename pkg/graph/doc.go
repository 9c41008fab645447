// Package graph provides the explored graph shared by every task of one
// exploration session.
//
// # Model
//
// Vertices are entities; edges are labeled with the relation that connects
// them, so a semantic triple (subject, relation, object) is stored as exactly
// one edge. Distances are therefore counted in semantic hops: a path of k
// triples has length k.
//
// # Lifecycle
//
//  1. **Creation:** a session creates one Graph per run
//  2. **Population:** exploration tasks call AddVertex/AddTriple concurrently
//  3. **Querying:** tasks call ShortestPathLength to enforce the hop budget,
//     and the path extractor calls ShortestPath once exploration stops
//  4. **Disposal:** the graph is discarded with the session
//
// The graph is append-only: vertices and edges are never removed.
//
// # Thread-Safety
//
// All methods are safe for concurrent use. A single sync.RWMutex guards the
// adjacency map; queries run under the read lock and mutations under the
// write lock. Callers must not hold other locks while calling into the graph.
package graph
