// Command starfieldd serves a procedurally generated galaxy and the player's
// exploration progress over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/starfield/internal/api"
	"github.com/talgya/starfield/internal/config"
	"github.com/talgya/starfield/internal/logger"
	"github.com/talgya/starfield/internal/manager"
	"github.com/talgya/starfield/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging)

	slog.Info("Starfield galaxy service",
		"seed", cfg.Galaxy.Seed,
		"stars", cfg.Galaxy.StarCount,
		"arms", cfg.Galaxy.SpiralArms,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Storage ───────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	slog.Info("database opened", "path", cfg.Storage.SQLitePath)

	backends := []persistence.Backend{db}
	if cfg.Storage.RedisURL != "" {
		rdb, err := persistence.DialRedis(ctx, cfg.Storage.RedisURL, cfg.Storage.RedisPrefix)
		if err != nil {
			slog.Warn("redis unavailable, continuing with SQLite only", "error", err)
		} else {
			backends = append(backends, rdb)
			slog.Info("redis fallback enabled", "prefix", cfg.Storage.RedisPrefix)
		}
	}
	store := persistence.NewStore(backends...).WithChunkCacheSize(cfg.Manager.ChunkCacheSize)
	defer store.Close()

	// ── Galaxy ────────────────────────────────────────────────────────
	mgr := manager.New(store, manager.Options{
		HomeSearchRadius: cfg.Manager.HomeSearchRadius,
		ChunkRadius:      cfg.Manager.ChunkRadius,
		ChunkMaxSystems:  cfg.Manager.ChunkMaxSystems,
	})
	if err := mgr.Initialize(ctx, cfg.Galaxy); err != nil {
		slog.Error("failed to initialize galaxy", "error", err)
		os.Exit(1)
	}
	stats := mgr.Stats()

	go mgr.RunAutosave(ctx, cfg.Manager.AutosaveInterval)

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Server.AdminKey == "" {
		slog.Warn("STARFIELD_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Manager:        mgr,
		Port:           cfg.Server.Port,
		AdminKey:       cfg.Server.AdminKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Backends:       store.Backends(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RateLimit: api.RateLimit{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		},
	}
	apiServer.Start(ctx)

	fmt.Printf("\nStarfield is up: %d stars, %d systems, %d planets (seed %d).\n",
		stats.TotalStars, stats.TotalSystems, stats.TotalPlanets, stats.Seed)
	fmt.Printf("API: http://localhost:%s/api/v1/status\n", cfg.Server.Port)
	fmt.Println("Serving... (Ctrl+C to stop)")

	<-ctx.Done()
	slog.Info("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if _, err := mgr.Save(shutdownCtx); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Starfield stopped. Exploration saved.")
}
