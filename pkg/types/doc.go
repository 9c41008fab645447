// Package types defines the core data types shared by the pathfinder packages.
//
// This package contains the fundamental values that flow between the
// knowledge-base clients, the explored graph and the path extractor:
//   - Entity: an opaque entity identifier (URI)
//   - Relation: an opaque predicate identifier (URI)
//   - Link: a (relation, object) pair returned by one knowledge-base lookup
//   - Triple: a (subject, relation, object) statement stored in the explored graph
//   - Path: an ordered list of triples from a source entity to a target entity
//
// # Validation
//
//	t := types.Triple{Subject: "a", Relation: "r", Object: "b"}
//	if err := t.Validate(); err != nil {
//	    // Handle validation error
//	}
//
// # Serialization
//
// Link, Triple and Path carry json and yaml tags so results can be printed by
// the CLI or returned by the HTTP API without conversion.
package types
