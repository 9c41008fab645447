package main

import (
	"log/slog"

	"github.com/soundprediction/pathfinder/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    Pathfinder Colored Logger Demo")
	log.Info("============================================")

	log.Debug("expansion state", "entity", "http://dbpedia.org/resource/Albert_Einstein", "state", "fetching")
	log.Debug("expansion state", "entity", "http://dbpedia.org/resource/Ulm", "state", "expanded", "distance", 1)
	log.Info("exploration started", "session_id", "demo", "max_hops", 2)
	log.Info("Path found", "relations", "[birthPlace, country]")
	log.Warn("lookup failed, treating entity as a leaf", "entity", "http://dbpedia.org/resource/Physics")
	log.Error("circuit breaker tripped, too many failed lookups", "breaker", "knowledge-sparql")

	log.Info("Demo complete!")
}
