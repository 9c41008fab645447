package pathfinder

import (
	"context"
)

// PathFinder finds relation paths between entities. Handlers and commands
// depend on this interface rather than on *Client.
type PathFinder interface {
	// FindPath explores from req.Source towards req.Target. Not finding a
	// path is not an error: the result has Found set to false.
	FindPath(ctx context.Context, req Request) (*Result, error)

	// Ping checks that the knowledge base is reachable.
	Ping(ctx context.Context) error
}

var _ PathFinder = (*Client)(nil)
