package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"askbob-medical/backend/internal/adapter"
	"askbob-medical/backend/internal/agent"
	"askbob-medical/backend/internal/cache"
	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/pkg/config"
	"askbob-medical/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	ctx := context.Background()

	graphStore, err := graph.Open(ctx, graph.FromAppConfig(cfg))
	if err != nil {
		log.Fatal("Failed to open graph store", zap.Error(err))
	}
	if graphStore != nil {
		defer graphStore.Close(ctx)
	}

	backend, err := memory.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open memory backend", zap.Error(err))
	}
	defer backend.Close()

	if cfg.CacheEnabled {
		var l2 *cache.SQLiteCache
		if cfg.CacheL2Enabled {
			l2, err = cache.NewSQLiteCache(ctx, cfg.CacheL2Path, cfg.CacheL2TTL)
			if err != nil {
				log.Fatal("Failed to open durable cache", zap.Error(err))
			}
			defer l2.Close()
		}
		tiered := cache.NewTiered(cache.NewLRU(cfg.CacheL1Capacity, cfg.CacheL1TTL), l2)
		backend = memory.NewCachedBackend(backend, tiered)
	}

	llm := adapter.NewLLMClient(cfg)
	cli := NewCLI(os.Stdin, os.Stdout, backend, agent.NewMemoryAgent(backend, llm), graphStore)

	if err := cli.Run(ctx); err != nil {
		log.Fatal("CLI session failed", zap.Error(err))
	}
}
