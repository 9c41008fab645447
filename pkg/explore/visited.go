package explore

import (
	"sync"

	"github.com/soundprediction/pathfinder/pkg/types"
)

// VisitedSet records the entities admitted to the exploration frontier.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[types.Entity]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[types.Entity]struct{})}
}

// TryAdmit inserts e and reports whether this call performed the insertion.
// Exactly one of any number of concurrent callers for the same entity gets true.
func (v *VisitedSet) TryAdmit(e types.Entity) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[e]; ok {
		return false
	}
	v.seen[e] = struct{}{}
	return true
}

// Contains reports whether e has been admitted.
func (v *VisitedSet) Contains(e types.Entity) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[e]
	return ok
}

// Len returns the number of admitted entities.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
