package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, BackendSPARQL, cfg.Knowledge.Backend)
	assert.Equal(t, "https://dbpedia.org/sparql", cfg.Knowledge.Endpoint)
	assert.Equal(t, 300*time.Millisecond, cfg.Knowledge.PolitenessDelay)
	assert.Equal(t, 500, cfg.Knowledge.ResultLimit)
	assert.Equal(t, "http://dbpedia.org/resource/", cfg.Knowledge.ResourcePrefix)
	assert.Equal(t, 5, cfg.Explore.CoreWorkers)
	assert.Equal(t, 10, cfg.Explore.MaxWorkers)
	assert.Equal(t, 5*time.Second, cfg.Explore.KeepAlive)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pathfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
knowledge:
  backend: memory
  triples_file: ./triples.yaml
  politeness_delay: 0s
explore:
  core_workers: 2
  max_workers: 4
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Knowledge.Backend)
	assert.Equal(t, "./triples.yaml", cfg.Knowledge.TriplesFile)
	assert.Equal(t, time.Duration(0), cfg.Knowledge.PolitenessDelay)
	assert.Equal(t, 2, cfg.Explore.CoreWorkers)
	assert.Equal(t, 4, cfg.Explore.MaxWorkers)
	assert.NoError(t, cfg.Validate())
}

func TestOverrideWithEnv(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://kb:7687")
	t.Setenv("SPARQL_ENDPOINT", "http://localhost:8890/sparql")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "bolt://kb:7687", cfg.Knowledge.Neo4j.URI)
	assert.Equal(t, "http://localhost:8890/sparql", cfg.Knowledge.Endpoint)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFrom(viper.New())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Knowledge.Backend = "gremlin" }},
		{"memory without file", func(c *Config) { c.Knowledge.Backend = BackendMemory }},
		{"zero hop budget", func(c *Config) { c.Explore.MaxHops = 0 }},
		{"zero workers", func(c *Config) { c.Explore.CoreWorkers = 0 }},
		{"max below core", func(c *Config) { c.Explore.MaxWorkers = 1; c.Explore.CoreWorkers = 3 }},
		{"zero queue", func(c *Config) { c.Explore.QueueSize = 0 }},
		{"negative delay", func(c *Config) { c.Knowledge.PolitenessDelay = -time.Second }},
		{"disk cache without dir", func(c *Config) { c.Cache.Enabled = true; c.Cache.InMemory = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("server port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 70000
		assert.ErrorIs(t, cfg.ValidateServer(), ErrInvalidConfig)
	})
}
