package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/soundprediction/pathfinder/pkg/types"
)

const (
	// DefaultSPARQLEndpoint is the public DBpedia endpoint
	DefaultSPARQLEndpoint = "https://dbpedia.org/sparql"

	// DefaultResultLimit caps the number of links returned per lookup
	DefaultResultLimit = 500

	sparqlResultsFormat = "application/sparql-results+json"
	maxResponseBytes    = 16 << 20
)

// SPARQLConfig configures a SPARQLClient.
type SPARQLConfig struct {
	Endpoint     string
	DefaultGraph string
	Limit        int
	Timeout      time.Duration
	UserAgent    string
	HTTPClient   *http.Client
}

// SPARQLClient looks up outgoing object properties over the SPARQL 1.1
// protocol using HTTP GET.
type SPARQLClient struct {
	endpoint     string
	defaultGraph string
	limit        int
	userAgent    string
	httpClient   *http.Client
}

// NewSPARQLClient creates a SPARQL client. Zero values fall back to the
// DBpedia endpoint, a limit of 500 and a 30 second timeout.
func NewSPARQLClient(cfg SPARQLConfig) *SPARQLClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSPARQLEndpoint
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultResultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pathfinder/1.0"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &SPARQLClient{
		endpoint:     cfg.Endpoint,
		defaultGraph: cfg.DefaultGraph,
		limit:        cfg.Limit,
		userAgent:    cfg.UserAgent,
		httpClient:   httpClient,
	}
}

// OutgoingLinksQuery builds the query selecting every object property of
// entity together with its object.
func OutgoingLinksQuery(entity types.Entity, limit int) string {
	return fmt.Sprintf(`PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX owl: <http://www.w3.org/2002/07/owl#>
SELECT DISTINCT ?pred ?obj WHERE {
  <%s> ?pred ?obj .
  ?pred rdf:type owl:ObjectProperty .
} LIMIT %d`, entity, limit)
}

// OutgoingLinks implements Client.
func (c *SPARQLClient) OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error) {
	if err := validateIRI(entity); err != nil {
		return nil, &FetchError{Kind: KindMalformed, Entity: entity, Err: err}
	}

	body, err := c.query(ctx, entity, OutgoingLinksQuery(entity, c.limit))
	if err != nil {
		return nil, err
	}

	links, err := decodeLinks(body)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformed, Entity: entity, Err: err}
	}
	return links, nil
}

// Ping sends a trivial ASK query to the endpoint.
func (c *SPARQLClient) Ping(ctx context.Context) error {
	_, err := c.query(ctx, "", "ASK {}")
	return err
}

// Close implements Client.
func (c *SPARQLClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *SPARQLClient) query(ctx context.Context, entity types.Entity, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", sparqlResultsFormat)
	if c.defaultGraph != "" {
		params.Set("default-graph-uri", c.defaultGraph)
	}

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+sep+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Entity: entity, Err: err}
	}
	req.Header.Set("Accept", sparqlResultsFormat)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(entity, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classify(entity, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Kind:       KindService,
			Entity:     entity,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("endpoint returned %s: %s", resp.Status, truncate(string(body), 200)),
		}
	}
	return body, nil
}

type sparqlTerm struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sparqlResponse struct {
	Results *struct {
		Bindings []map[string]sparqlTerm `json:"bindings"`
	} `json:"results"`
}

// decodeLinks parses a SPARQL JSON result set. Bodies that fail to parse get
// one repair attempt before being rejected.
func decodeLinks(body []byte) ([]types.Link, error) {
	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(body))
		if rerr != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		resp = sparqlResponse{}
		if err := json.Unmarshal([]byte(repaired), &resp); err != nil {
			return nil, fmt.Errorf("decode repaired results: %w", err)
		}
	}
	if resp.Results == nil {
		return nil, errors.New("response has no results section")
	}

	links := make([]types.Link, 0, len(resp.Results.Bindings))
	for _, b := range resp.Results.Bindings {
		pred, okPred := b["pred"]
		obj, okObj := b["obj"]
		if !okPred || !okObj {
			continue
		}
		// literals and blank nodes are not entities
		if obj.Type != "uri" || pred.Value == "" || obj.Value == "" {
			continue
		}
		links = append(links, types.Link{
			Relation: types.Relation(pred.Value),
			Object:   types.Entity(obj.Value),
		})
	}
	return links, nil
}

func validateIRI(entity types.Entity) error {
	if entity.IsZero() {
		return types.ErrEmptyEntity
	}
	if i := strings.IndexAny(string(entity), "<>\"{}|^`\\ \t\n\r"); i >= 0 {
		return fmt.Errorf("invalid character %q in IRI %q", entity[i], entity)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
