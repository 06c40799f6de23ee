package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"askbob-medical/backend/internal/adapter"
	"askbob-medical/backend/internal/agent"
	"askbob-medical/backend/internal/cache"
	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/medical"
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
	log.Info("Starting HTTP API server...")

	ctx := context.Background()

	graphStore, err := graph.Open(ctx, graph.FromAppConfig(cfg))
	if err != nil {
		log.Fatal("Failed to open graph store", zap.Error(err))
	}
	if graphStore != nil {
		defer graphStore.Close(ctx)
		log.Info("Graph store ready", zap.String("provider", cfg.GraphProvider))
	} else {
		log.Warn("Graph store disabled; graph endpoints will return 503")
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
		log.Info("Search cache enabled",
			zap.Int("l1_capacity", cfg.CacheL1Capacity),
			zap.Bool("l2_enabled", cfg.CacheL2Enabled))
	}

	llm := adapter.NewLLMClient(cfg)

	app := &application{
		agent:   agent.NewMemoryAgent(backend, llm),
		reports: medical.NewReportService(backend, graphStore),
		graph:   graphStore,
		logger:  log,
	}
	router := newRouter(app, cfg.IsProduction())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
