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

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.GraphProvider)
	assert.True(t, cfg.GraphEnabled)
	assert.Equal(t, "data/graph/records.db", cfg.GraphPath)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 512, cfg.CacheL1Capacity)
	assert.Equal(t, 5*time.Minute, cfg.CacheL1TTL)
	assert.Equal(t, 15*time.Minute, cfg.CacheL2TTL)
	assert.Equal(t, "memory", cfg.MemoryBackend)
	assert.Equal(t, "qwen-plus", cfg.LLMModel)
	assert.False(t, cfg.LLMStub)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ASKBOB_GRAPH_PROVIDER", "neo4j")
	t.Setenv("ASKBOB_NEO4J_URL", "neo4j://localhost:7687")
	t.Setenv("ASKBOB_NEO4J_MAX_POOL", "25")
	t.Setenv("ASKBOB_CACHE_L1_TTL", "60")
	t.Setenv("ASKBOB_LLM_MODE", "stub")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "neo4j", cfg.GraphProvider)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4jURL)
	assert.Equal(t, 25, cfg.Neo4jMaxPool)
	assert.Equal(t, time.Minute, cfg.CacheL1TTL)
	assert.True(t, cfg.LLMStub)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := &Config{Port: "8080", CacheL1Capacity: 1, MemoryBackend: "memory"}
	assert.NoError(t, cfg.Validate())

	cfg.Port = ""
	assert.Error(t, cfg.Validate())

	cfg.Port = "8080"
	cfg.CacheL1Capacity = 0
	assert.Error(t, cfg.Validate())

	cfg.CacheL1Capacity = 1
	cfg.MemoryBackend = "redis"
	assert.Error(t, cfg.Validate())
}

func TestLoad_RejectsUnknownMemoryBackend(t *testing.T) {
	t.Setenv("ASKBOB_MEMORY_BACKEND", "redis")
	_, err := Load()
	assert.Error(t, err)
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("ASKBOB_TEST_BOOL", "0")
	assert.False(t, getEnvBool("ASKBOB_TEST_BOOL", true))

	t.Setenv("ASKBOB_TEST_BOOL", "true")
	assert.True(t, getEnvBool("ASKBOB_TEST_BOOL", false))

	t.Setenv("ASKBOB_TEST_BOOL", "garbage")
	assert.True(t, getEnvBool("ASKBOB_TEST_BOOL", true))
}
