package explore

import (
	"github.com/soundprediction/pathfinder/pkg/graph"
	"github.com/soundprediction/pathfinder/pkg/types"
)

// ExtractPath returns one shortest path from source to target in g, or an
// empty path when target is absent or unreachable. When several shortest
// paths exist any of them may be returned.
func ExtractPath(g *graph.Graph, source, target types.Entity) types.Path {
	if !g.ContainsVertex(target) {
		return types.Path{}
	}
	path, ok := g.ShortestPath(source, target)
	if !ok {
		return types.Path{}
	}
	return path
}
