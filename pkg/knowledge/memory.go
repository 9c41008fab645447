package knowledge

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/soundprediction/pathfinder/pkg/types"
	"gopkg.in/yaml.v3"
)

// MemoryClient serves lookups from a fixed set of triples held in memory.
type MemoryClient struct {
	mu    sync.RWMutex
	links map[types.Entity][]types.Link
	seen  map[types.Triple]struct{}
}

// NewMemoryClient creates a client answering from triples. Invalid triples
// are skipped.
func NewMemoryClient(triples []types.Triple) *MemoryClient {
	m := &MemoryClient{
		links: make(map[types.Entity][]types.Link),
		seen:  make(map[types.Triple]struct{}),
	}
	for _, t := range triples {
		_ = m.Add(t)
	}
	return m
}

// Add inserts a triple. Duplicates are ignored.
func (m *MemoryClient) Add(t types.Triple) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[t]; ok {
		return nil
	}
	m.seen[t] = struct{}{}
	m.links[t.Subject] = append(m.links[t.Subject], types.Link{Relation: t.Relation, Object: t.Object})
	return nil
}

// OutgoingLinks implements Client. Links come back in insertion order.
func (m *MemoryClient) OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(entity, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	links := m.links[entity]
	out := make([]types.Link, len(links))
	copy(out, links)
	return out, nil
}

// Close implements Client.
func (m *MemoryClient) Close() error {
	return nil
}

// TriplesFile is the on-disk layout read by LoadTriplesFile.
//
//	triples:
//	  - subject: http://example.org/A
//	    relation: http://example.org/r1
//	    object: http://example.org/B
type TriplesFile struct {
	Triples []types.Triple `yaml:"triples"`
}

// LoadTriplesFile reads triples from a YAML file.
func LoadTriplesFile(path string) ([]types.Triple, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read triples file: %w", err)
	}
	var file TriplesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse triples file %s: %w", path, err)
	}
	for i, t := range file.Triples {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("triple %d in %s: %w", i, path, err)
		}
	}
	return file.Triples, nil
}
