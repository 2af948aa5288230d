package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	syncsvc "github.com/marisol-apps/pantrylog-backend/internal/sync"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/db"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
	"github.com/marisol-apps/pantrylog-backend/pkg/metrics"
)

// syncd drains dirty rows to the remote store on a fixed interval. Every
// pass is independent: a failed or offline pass leaves flags dirty and the
// next tick picks them up again.
func main() {
	logg := logger.New(logger.Options{ServiceName: "syncd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "syncd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	var remote syncsvc.RemoteStore
	tier := enums.SubscriptionTier(cfg.Sync.Tier)
	if tier.CanSync() && cfg.Sync.RemoteURL != "" {
		remote, err = syncsvc.NewHTTPRemote(cfg.Sync, cfg.JWT, tier)
		if err != nil {
			logg.Error(context.Background(), "failed to create sync remote", err)
			os.Exit(1)
		}
	}

	engine, err := syncsvc.NewEngine(dbClient.DB(), remote, cfg.Sync, syncMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync engine", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(drainCtx)
	}()

	runCtx := logg.WithFields(ctx, map[string]any{
		"interval": cfg.Sync.Interval.String(),
		"tier":     cfg.Sync.Tier,
	})
	logg.Info(runCtx, "starting sync daemon")

	ticker := time.NewTicker(cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		runPass(ctx, engine, logg)

		select {
		case <-ctx.Done():
			logg.Info(runCtx, "sync daemon shutting down")
			return
		case <-ticker.C:
		}
	}
}

func runPass(ctx context.Context, engine *syncsvc.Engine, logg *logger.Logger) {
	users, err := engine.DirtyUsers(ctx)
	if err != nil {
		logg.Error(ctx, "failed to list users with pending changes", err)
		return
	}
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		report := engine.SyncNow(ctx, userID)
		passCtx := logg.WithFields(logg.WithUserID(ctx, userID), map[string]any{
			"outcome": string(report.Outcome),
			"pushed":  report.Pushed,
			"failed":  report.Failed,
		})
		if report.Err != nil {
			logg.Warn(passCtx, "sync pass finished with errors")
			continue
		}
		logg.Info(passCtx, "sync pass finished")
	}
}
