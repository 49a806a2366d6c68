package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/supermarket-backend/api"
	"github.com/angelmondragon/supermarket-backend/api/routes"
	"github.com/angelmondragon/supermarket-backend/internal/analytics"
	"github.com/angelmondragon/supermarket-backend/internal/catalog"
	"github.com/angelmondragon/supermarket-backend/internal/customers"
	"github.com/angelmondragon/supermarket-backend/internal/purchases"
	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/db"
	"github.com/angelmondragon/supermarket-backend/pkg/env"
	"github.com/angelmondragon/supermarket-backend/pkg/instance"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
	"github.com/angelmondragon/supermarket-backend/pkg/migrate"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox"
	pkgredis "github.com/angelmondragon/supermarket-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cashier"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cashier",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
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

	reg := metrics.NewRegistry()
	common := routes.Common{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Metrics:  metrics.NewHTTPMetrics(reg, "cashier"),
		Gatherer: reg,
	}

	var (
		idempotency pkgredis.IdempotencyStore
		invalidator purchases.CacheInvalidator
	)
	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		idempotency = redisClient
		invalidator = analytics.NewInvalidator(redisClient)
		common.Redis = redisClient
	}

	params := purchases.ServiceParams{
		DB:          dbClient,
		Purchases:   purchases.NewRepository(dbClient.DB()),
		Customers:   customers.NewRepository(dbClient.DB()),
		Catalog:     catalog.NewRepository(dbClient.DB()),
		Invalidator: invalidator,
		Metrics:     metrics.NewPurchaseMetrics(reg),
		Logger:      logg,
	}
	if cfg.PubSub.Enabled() {
		params.Outbox = outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	}
	purchaseService, err := purchases.NewService(params)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	addr := ":" + env.First(cfg.App.CashierPort, "PORT")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"instance":    instance.GetID(),
		"idempotency": idempotency != nil,
		"outbox":      params.Outbox != nil,
	})
	logg.Info(ctx, "starting cashier server")

	server := api.NewServer(addr, routes.NewCashierRouter(common, purchaseService, idempotency))
	if err := api.Serve(ctx, logg, server, api.DefaultShutdownTimeout); err != nil {
		logg.Error(ctx, "cashier server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cashier server stopped")
}
