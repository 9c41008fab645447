package types

import (
	"errors"
	"strings"
)

// Validation errors
var (
	ErrEmptyEntity   = errors.New("entity cannot be empty")
	ErrEmptyRelation = errors.New("relation cannot be empty")
)

// Entity is an opaque knowledge-base entity identifier, usually a URI.
// Identity is value equality.
type Entity string

// String returns the entity URI.
func (e Entity) String() string {
	return string(e)
}

// IsZero reports whether the entity is empty.
func (e Entity) IsZero() bool {
	return strings.TrimSpace(string(e)) == ""
}

// Relation is an opaque predicate identifier, usually a URI.
type Relation string

// String returns the relation URI.
func (r Relation) String() string {
	return string(r)
}

// Link is one typed outgoing hop from an entity as reported by a knowledge base:
// the predicate and the object it points at.
type Link struct {
	Relation Relation `json:"relation" yaml:"relation" msgpack:"r"`
	Object   Entity   `json:"object" yaml:"object" msgpack:"o"`
}

// Triple is a semantic (subject, predicate, object) statement.
type Triple struct {
	Subject  Entity   `json:"subject" yaml:"subject"`
	Relation Relation `json:"relation" yaml:"relation"`
	Object   Entity   `json:"object" yaml:"object"`
}

// Validate checks that all three parts of the triple are set.
func (t Triple) Validate() error {
	if t.Subject.IsZero() || t.Object.IsZero() {
		return ErrEmptyEntity
	}
	if strings.TrimSpace(string(t.Relation)) == "" {
		return ErrEmptyRelation
	}
	return nil
}

// Path is an ordered sequence of triples where each triple's object is the
// next triple's subject.
type Path []Triple

// Relations returns the predicate of every hop, in order. Repeated predicates
// on distinct hops are kept.
func (p Path) Relations() []Relation {
	rels := make([]Relation, 0, len(p))
	for _, t := range p {
		rels = append(rels, t.Relation)
	}
	return rels
}

// Hops returns the number of semantic hops in the path.
func (p Path) Hops() int {
	return len(p)
}
