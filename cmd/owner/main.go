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
	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/db"
	"github.com/angelmondragon/supermarket-backend/pkg/env"
	"github.com/angelmondragon/supermarket-backend/pkg/instance"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
	"github.com/angelmondragon/supermarket-backend/pkg/migrate"
	pkgredis "github.com/angelmondragon/supermarket-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "owner"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "owner",
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
		Metrics:  metrics.NewHTTPMetrics(reg, "owner"),
		Gatherer: reg,
	}

	var cache pkgredis.Cache
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
		cache = redisClient
		common.Redis = redisClient
	}

	inner, err := analytics.NewService(analytics.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}
	analyticsService := analytics.NewCachedService(inner, cache, cfg.Analytics.CacheTTL, metrics.NewAnalyticsMetrics(reg), logg)

	addr := ":" + env.First(cfg.App.OwnerPort, "PORT")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"instance":  instance.GetID(),
		"cache_ttl": cfg.Analytics.CacheTTL.String(),
	})
	logg.Info(ctx, "starting owner dashboard server")

	server := api.NewServer(addr, routes.NewOwnerRouter(common, analyticsService))
	if err := api.Serve(ctx, logg, server, api.DefaultShutdownTimeout); err != nil {
		logg.Error(ctx, "owner server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "owner server stopped")
}
