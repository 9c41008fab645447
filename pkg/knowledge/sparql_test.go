package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/soundprediction/pathfinder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResults = `{
  "head": {"vars": ["pred", "obj"]},
  "results": {"bindings": [
    {"pred": {"type": "uri", "value": "http://dbpedia.org/ontology/birthPlace"},
     "obj":  {"type": "uri", "value": "http://dbpedia.org/resource/Ulm"}},
    {"pred": {"type": "uri", "value": "http://dbpedia.org/ontology/field"},
     "obj":  {"type": "uri", "value": "http://dbpedia.org/resource/Physics"}},
    {"pred": {"type": "uri", "value": "http://dbpedia.org/ontology/motto"},
     "obj":  {"type": "literal", "value": "not an entity"}}
  ]}
}`

func TestSPARQLClient_OutgoingLinks(t *testing.T) {
	var gotQuery, gotFormat, gotGraph, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotFormat = r.URL.Query().Get("format")
		gotGraph = r.URL.Query().Get("default-graph-uri")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", sparqlResultsFormat)
		_, _ = w.Write([]byte(sampleResults))
	}))
	defer srv.Close()

	c := NewSPARQLClient(SPARQLConfig{Endpoint: srv.URL, DefaultGraph: "http://dbpedia.org", Limit: 50})
	defer c.Close()

	links, err := c.OutgoingLinks(context.Background(), "http://dbpedia.org/resource/Albert_Einstein")
	require.NoError(t, err)
	assert.Equal(t, []types.Link{
		{Relation: "http://dbpedia.org/ontology/birthPlace", Object: "http://dbpedia.org/resource/Ulm"},
		{Relation: "http://dbpedia.org/ontology/field", Object: "http://dbpedia.org/resource/Physics"},
	}, links)

	assert.Contains(t, gotQuery, "<http://dbpedia.org/resource/Albert_Einstein> ?pred ?obj")
	assert.Contains(t, gotQuery, "owl:ObjectProperty")
	assert.True(t, strings.HasSuffix(gotQuery, "LIMIT 50"))
	assert.Equal(t, sparqlResultsFormat, gotFormat)
	assert.Equal(t, sparqlResultsFormat, gotAccept)
	assert.Equal(t, "http://dbpedia.org", gotGraph)
}

func TestSPARQLClient_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"head":{"vars":["pred","obj"]},"results":{"bindings":[]}}`))
	}))
	defer srv.Close()

	links, err := NewSPARQLClient(SPARQLConfig{Endpoint: srv.URL}).OutgoingLinks(context.Background(), "http://x/A")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestSPARQLClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		sentinel error
		status   int
	}{
		{
			name: "service unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			sentinel: ErrService,
			status:   http.StatusServiceUnavailable,
		},
		{
			name: "bad query",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "syntax error", http.StatusBadRequest)
			},
			sentinel: ErrService,
			status:   http.StatusBadRequest,
		},
		{
			name: "no results section",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"head":{}}`))
			},
			sentinel: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewSPARQLClient(SPARQLConfig{Endpoint: srv.URL}).OutgoingLinks(context.Background(), "http://x/A")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Equal(t, types.Entity("http://x/A"), fe.Entity)
		})
	}
}

func TestSPARQLClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewSPARQLClient(SPARQLConfig{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.OutgoingLinks(context.Background(), "http://x/A")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSPARQLClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewSPARQLClient(SPARQLConfig{Endpoint: url}).OutgoingLinks(context.Background(), "http://x/A")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestSPARQLClient_RejectsInvalidIRI(t *testing.T) {
	c := NewSPARQLClient(SPARQLConfig{Endpoint: "http://127.0.0.1:1"})
	_, err := c.OutgoingLinks(context.Background(), "http://x/A> ?p ?o } #")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = c.OutgoingLinks(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeLinks_Repair(t *testing.T) {
	// trailing comma and missing closing braces
	body := []byte(`{"results":{"bindings":[{"pred":{"type":"uri","value":"http://x/r"},"obj":{"type":"uri","value":"http://x/B"}},]`)

	links, err := decodeLinks(body)
	require.NoError(t, err)
	assert.Equal(t, []types.Link{{Relation: "http://x/r", Object: "http://x/B"}}, links)
}

func TestOutgoingLinksQuery(t *testing.T) {
	q := OutgoingLinksQuery("http://dbpedia.org/resource/Ulm", 500)
	assert.Contains(t, q, "SELECT DISTINCT ?pred ?obj")
	assert.Contains(t, q, "<http://dbpedia.org/resource/Ulm> ?pred ?obj .")
	assert.Contains(t, q, "?pred rdf:type owl:ObjectProperty .")
	assert.True(t, strings.HasSuffix(q, "LIMIT 500"))
}
