package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Graph store
	GraphProvider       string // "sqlite" (embedded) or "neo4j" (networked)
	GraphEnabled        bool
	GraphPath           string // embedded store file path
	Neo4jURL            string
	Neo4jUser           string
	Neo4jPassword       string
	Neo4jDatabase       string
	Neo4jMaxPool        int
	Neo4jAcquireTimeout time.Duration

	// Search cache
	CacheEnabled    bool
	CacheL1Capacity int
	CacheL1TTL      time.Duration
	CacheL2Enabled  bool
	CacheL2Path     string
	CacheL2TTL      time.Duration

	// Memory backend
	MemoryBackend    string // "memory" or "sqlite"
	MemorySQLitePath string

	// LLM
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMStub        bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		GraphProvider:       getEnv("ASKBOB_GRAPH_PROVIDER", "sqlite"),
		GraphEnabled:        getEnvBool("ASKBOB_GRAPH_ENABLED", true),
		GraphPath:           getEnv("ASKBOB_GRAPH_PATH", "data/graph/records.db"),
		Neo4jURL:            getEnv("ASKBOB_NEO4J_URL", ""),
		Neo4jUser:           getEnv("ASKBOB_NEO4J_USERNAME", ""),
		Neo4jPassword:       getEnv("ASKBOB_NEO4J_PASSWORD", ""),
		Neo4jDatabase:       getEnv("ASKBOB_NEO4J_DATABASE", ""),
		Neo4jMaxPool:        getEnvInt("ASKBOB_NEO4J_MAX_POOL", 10),
		Neo4jAcquireTimeout: time.Duration(getEnvInt("ASKBOB_NEO4J_ACQUIRE_TIMEOUT", 30)) * time.Second,

		CacheEnabled:    getEnvBool("ASKBOB_CACHE_ENABLED", true),
		CacheL1Capacity: getEnvInt("ASKBOB_CACHE_L1_CAPACITY", 512),
		CacheL1TTL:      time.Duration(getEnvInt("ASKBOB_CACHE_L1_TTL", 300)) * time.Second,
		CacheL2Enabled:  getEnvBool("ASKBOB_CACHE_L2_ENABLED", true),
		CacheL2Path:     getEnv("ASKBOB_CACHE_L2_PATH", "data/cache/search_cache.db"),
		CacheL2TTL:      time.Duration(getEnvInt("ASKBOB_CACHE_L2_TTL", 900)) * time.Second,

		MemoryBackend:    getEnv("ASKBOB_MEMORY_BACKEND", "memory"),
		MemorySQLitePath: getEnv("ASKBOB_MEMORY_SQLITE_PATH", "data/memory/memories.db"),

		LLMBaseURL:     getEnv("ASKBOB_LLM_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
		LLMAPIKey:      getEnv("ASKBOB_LLM_API_KEY", os.Getenv("DASHSCOPE_API_KEY")),
		LLMModel:       getEnv("ASKBOB_LLM_MODEL", "qwen-plus"),
		LLMTemperature: getEnvFloat("ASKBOB_LLM_TEMPERATURE", 0.2),
		LLMStub:        getEnv("ASKBOB_LLM_MODE", "") == "stub",
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
// Graph provider credentials are validated at store construction, not here,
// so a disabled graph store never demands Neo4j settings.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.CacheL1Capacity < 1 {
		return fmt.Errorf("ASKBOB_CACHE_L1_CAPACITY must be positive")
	}
	if c.MemoryBackend != "memory" && c.MemoryBackend != "sqlite" {
		return fmt.Errorf("unknown memory backend: %s", c.MemoryBackend)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
