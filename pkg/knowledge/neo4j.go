package knowledge

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/soundprediction/pathfinder/pkg/types"
)

var cypherIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Neo4jConfig configures a Neo4jClient.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
	// URIProperty is the node property holding the entity URI (default "uri")
	URIProperty string
	// RelationNamespace is prepended to relationship types to form relation URIs
	RelationNamespace string
	Limit             int
}

// Neo4jClient answers lookups from a knowledge base loaded into Neo4j or
// Memgraph, where entities are nodes carrying their URI in a property and
// relations are relationship types.
type Neo4jClient struct {
	client    neo4j.DriverWithContext
	database  string
	query     string
	namespace string
	limit     int
}

// NewNeo4jClient creates a Neo4j-backed client.
func NewNeo4jClient(cfg Neo4jConfig) (*Neo4jClient, error) {
	if cfg.URIProperty == "" {
		cfg.URIProperty = "uri"
	}
	if !cypherIdentifier.MatchString(cfg.URIProperty) {
		return nil, fmt.Errorf("invalid uri property %q", cfg.URIProperty)
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultResultLimit
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	return &Neo4jClient{
		client:    driver,
		database:  cfg.Database,
		query:     outgoingLinksCypher(cfg.URIProperty),
		namespace: cfg.RelationNamespace,
		limit:     cfg.Limit,
	}, nil
}

func outgoingLinksCypher(prop string) string {
	return fmt.Sprintf(`
		MATCH (s {%[1]s: $uri})-[r]->(o)
		WHERE o.%[1]s IS NOT NULL
		RETURN DISTINCT type(r) AS pred, o.%[1]s AS obj
		LIMIT $limit
	`, prop)
}

// OutgoingLinks implements Client.
func (n *Neo4jClient) OutgoingLinks(ctx context.Context, entity types.Entity) ([]types.Link, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, n.query, map[string]any{
			"uri":   entity.String(),
			"limit": n.limit,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, n.classify(entity, err)
	}

	records, _ := result.([]*db.Record)
	links, err := linksFromRecords(records, n.namespace)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformed, Entity: entity, Err: err}
	}
	return links, nil
}

// Ping verifies connectivity to the database.
func (n *Neo4jClient) Ping(ctx context.Context) error {
	if err := n.client.VerifyConnectivity(ctx); err != nil {
		return n.classify("", err)
	}
	return nil
}

// Close implements Client.
func (n *Neo4jClient) Close() error {
	return n.client.Close(context.Background())
}

func (n *Neo4jClient) classify(entity types.Entity, err error) *FetchError {
	var neoErr *neo4j.Neo4jError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return classify(entity, err)
	case neo4j.IsConnectivityError(err):
		return &FetchError{Kind: KindNetwork, Entity: entity, Err: err}
	case errors.As(err, &neoErr):
		return &FetchError{Kind: KindService, Entity: entity, Err: err}
	default:
		return classify(entity, err)
	}
}

func linksFromRecords(records []*db.Record, namespace string) ([]types.Link, error) {
	links := make([]types.Link, 0, len(records))
	for _, record := range records {
		pred, err := recordString(record, "pred")
		if err != nil {
			return nil, err
		}
		obj, err := recordString(record, "obj")
		if err != nil {
			return nil, err
		}
		links = append(links, types.Link{
			Relation: types.Relation(namespace + pred),
			Object:   types.Entity(obj),
		})
	}
	return links, nil
}

func recordString(record *db.Record, key string) (string, error) {
	value, found := record.Get(key)
	if !found {
		return "", fmt.Errorf("record has no %q column", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type for %s: got %T, expected string", key, value)
	}
	return s, nil
}
