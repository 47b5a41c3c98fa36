package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, int32(5), cfg.DBMaxConnections)
	assert.Equal(t, 30*time.Second, cfg.DBIdleTimeout)
	assert.Equal(t, time.Minute, cfg.FeedCacheTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.NatsUrl)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_MAX_CONNECTIONS", "12")
	t.Setenv("DB_IDLE_TIMEOUT", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("NEO4J_URI", "bolt://neo4j:7687")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, int32(12), cfg.DBMaxConnections)
	assert.Equal(t, 2*time.Minute, cfg.DBIdleTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("DB_MAX_CONNECTIONS", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"prod without DB_URL", func(c *Config) { c.Env = "prod"; c.DBUrl = "" }, "DB_URL is required"},
		{"memory in prod", func(c *Config) { c.Env = "prod"; c.StoreDriver = DriverMemory }, "not allowed in production"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, "unknown STORE_DRIVER"},
		{"empty pool", func(c *Config) { c.DBMaxConnections = 0 }, "DB_MAX_CONNECTIONS"},
		{"graph without nats", func(c *Config) { c.Neo4jURI = "bolt://x" }, "NEO4J_URI requires NATS_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Env: "local", StoreDriver: DriverPostgres, DBUrl: "postgres://x", DBMaxConnections: 5}
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestString_HidesSecrets(t *testing.T) {
	cfg := Config{DBUrl: "postgres://user:secret@db/x", Neo4jPass: "hunter2", NatsUrl: "nats://x"}
	out := cfg.String()
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "nats=true")
}
