package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNeo4jClient_RejectsInvalidURIProperty(t *testing.T) {
	for _, prop := range []string{"uri}) DETACH DELETE s //", "1uri", "my-uri", "uri `x`"} {
		t.Run(prop, func(t *testing.T) {
			_, err := NewNeo4jClient(Neo4jConfig{URI: "bolt://localhost:7687", URIProperty: prop})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid uri property")
		})
	}
}

func TestOutgoingLinksCypher(t *testing.T) {
	q := outgoingLinksCypher("iri")
	assert.Contains(t, q, "MATCH (s {iri: $uri})-[r]->(o)")
	assert.Contains(t, q, "RETURN DISTINCT type(r) AS pred, o.iri AS obj")
}
