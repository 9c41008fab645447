// Package knowledge provides clients that look up the outgoing links of an
// entity in a knowledge base.
//
// Three backends are available: SPARQLClient for SPARQL endpoints such as
// DBpedia, Neo4jClient for knowledge bases loaded into Neo4j or Memgraph,
// and MemoryClient for fixed triple sets. Decorators add politeness
// throttling, retries, circuit breaking and a badger-backed cache; use
// NewFromConfig to assemble the chain from configuration.
//
// Every failed lookup is reported as a *FetchError, which matches one of
// ErrTimeout, ErrNetwork, ErrMalformed or ErrService with errors.Is.
package knowledge
