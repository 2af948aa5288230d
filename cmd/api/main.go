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
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/api/routes"
	"github.com/marisol-apps/pantrylog-backend/internal/cart"
	checkoutsvc "github.com/marisol-apps/pantrylog-backend/internal/checkout"
	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/internal/lists"
	"github.com/marisol-apps/pantrylog-backend/internal/notifications"
	"github.com/marisol-apps/pantrylog-backend/internal/prices"
	"github.com/marisol-apps/pantrylog-backend/internal/products"
	"github.com/marisol-apps/pantrylog-backend/internal/registry"
	"github.com/marisol-apps/pantrylog-backend/internal/stores"
	syncsvc "github.com/marisol-apps/pantrylog-backend/internal/sync"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/db"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
	"github.com/marisol-apps/pantrylog-backend/pkg/metrics"
	"github.com/marisol-apps/pantrylog-backend/pkg/migrate"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
	"github.com/marisol-apps/pantrylog-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	bus := observe.NewBus()
	gdb := dbClient.DB()

	registrySvc, err := registry.NewService(gdb, bus)
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
		os.Exit(1)
	}
	if err := registrySvc.Seed(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to seed reference data", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	scheduler := notifications.NewLogScheduler(cfg.Notify, logg)
	lookup := products.NewLookup(cfg.Lookup, redisClient, logg)
	contributor := products.NewHTTPContributor(cfg.Lookup, logg)

	invRepo := inventory.NewRepository(gdb, bus)
	cartRepo := cart.NewRepository(gdb, bus)
	listRepo := lists.NewRepository(gdb, bus)
	storeRepo := stores.NewRepository(gdb, bus)
	priceRepo := prices.NewRepository(gdb, bus)

	invService, err := inventory.NewService(invRepo, scheduler, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	listService, err := lists.NewService(listRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create lists service", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(
		dbClient, invRepo, cartRepo, listRepo, storeRepo, priceRepo, scheduler, contributor, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	syncEngine, err := buildSyncEngine(cfg, gdb, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync engine", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Registry:   registrySvc,
			Inventory:  invService,
			InvRepo:    invRepo,
			Lists:      listService,
			Cart:       cartRepo,
			Checkout:   checkoutService,
			Stores:     storeRepo,
			Prices:     priceRepo,
			Lookup:     lookup,
			SyncEngine: syncEngine,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func buildSyncEngine(cfg *config.Config, gdb *gorm.DB, logg *logger.Logger) (*syncsvc.Engine, error) {
	var remote syncsvc.RemoteStore
	tier := enums.SubscriptionTier(cfg.Sync.Tier)
	if tier.CanSync() && cfg.Sync.RemoteURL != "" {
		httpRemote, err := syncsvc.NewHTTPRemote(cfg.Sync, cfg.JWT, tier)
		if err != nil {
			return nil, err
		}
		remote = httpRemote
	}
	return syncsvc.NewEngine(gdb, remote, cfg.Sync, metrics.NewSyncMetrics(prometheus.DefaultRegisterer), logg)
}
