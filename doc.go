// Package pathfinder discovers relation paths between two entities of a
// knowledge graph such as DBpedia.
//
// Starting from the source entity, pathfinder concurrently looks up outgoing
// object properties, records every new entity in a per-request graph and
// keeps expanding entities that are still within the hop budget. The search
// stops as soon as the target is reached or nothing is left to expand, and
// the relations along a shortest path are returned.
//
// # Basic Usage
//
//	kb := knowledge.NewThrottledClient(
//		knowledge.NewSPARQLClient(knowledge.SPARQLConfig{}),
//		knowledge.DefaultPolitenessDelay,
//	)
//
//	client, err := pathfinder.NewClient(kb, nil, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	result, err := client.FindPath(ctx, pathfinder.Request{
//		Source:  "Albert_Einstein",
//		Target:  "Ulm",
//		MaxHops: 2,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Relations())
//
// Short names are expanded with the configured resource prefix, so
// "Albert_Einstein" becomes http://dbpedia.org/resource/Albert_Einstein.
//
// # Configuration
//
// NewFromConfig assembles the knowledge client (SPARQL, Neo4j or an in-memory
// triple set, with throttling, retries, circuit breaking and caching) and the
// worker pool from a config.Config, which is usually loaded with viper by the
// pathfinder command.
package pathfinder
