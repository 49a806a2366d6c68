package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/supermarket-backend/internal/analytics"
	"github.com/angelmondragon/supermarket-backend/internal/catalog"
	"github.com/angelmondragon/supermarket-backend/internal/customers"
	"github.com/angelmondragon/supermarket-backend/internal/purchases"
	"github.com/angelmondragon/supermarket-backend/internal/seed"
	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/db"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
	"github.com/angelmondragon/supermarket-backend/pkg/migrate"
	pkgredis "github.com/angelmondragon/supermarket-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	dataDir := flag.String("data", cfg.Seed.DataDir, "directory holding products_list.csv and purchases.csv")
	reset := flag.Bool("reset", cfg.Seed.Reset, "delete existing rows before importing")
	skipMigrate := flag.Bool("skip-migrate", false, "do not apply pending migrations first")
	flag.Parse()

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"data_dir": *dataDir,
		"reset":    *reset,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	retries := uint64(0)
	if cfg.Seed.WaitRetries > 0 {
		retries = uint64(cfg.Seed.WaitRetries)
	}
	if err := seed.WaitForDatabase(ctx, dbClient, retries, cfg.Seed.WaitDelay, logg); err != nil {
		logg.Error(ctx, "database never became ready", err)
		os.Exit(1)
	}

	if !*skipMigrate {
		sqlDB, err := dbClient.SQL()
		if err != nil {
			logg.Error(ctx, "failed to get sql handle", err)
			os.Exit(1)
		}
		if err := migrate.Up(ctx, sqlDB, cfg.DB.Driver); err != nil {
			logg.Error(ctx, "failed to apply migrations", err)
			os.Exit(1)
		}
	}

	conn := dbClient.DB()
	seeder, err := seed.NewSeeder(
		dbClient,
		catalog.NewRepository(conn),
		customers.NewRepository(conn),
		purchases.NewRepository(conn),
		metrics.NewJobMetrics(metrics.NewRegistry()),
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create seeder", err)
		os.Exit(1)
	}

	result, err := seeder.Run(ctx, seed.Options{DataDir: *dataDir, Reset: *reset})
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"products":  result.Products,
		"customers": result.Customers,
		"purchases": result.Purchases,
	}), "seed complete")

	if cfg.Redis.Enabled() {
		invalidateAnalytics(ctx, cfg.Redis, logg)
	}
}

// invalidateAnalytics retires dashboard answers cached before the import.
func invalidateAnalytics(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) {
	redisClient, err := pkgredis.New(ctx, cfg, logg)
	if err != nil {
		logg.Warn(ctx, "analytics cache not invalidated: "+err.Error())
		return
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()
	if err := analytics.NewInvalidator(redisClient).Invalidate(ctx); err != nil {
		logg.Warn(ctx, "analytics cache not invalidated: "+err.Error())
	}
}
