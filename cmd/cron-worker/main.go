package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/supermarket-backend/internal/cron"
	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/db"
	"github.com/angelmondragon/supermarket-backend/pkg/instance"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
	"github.com/angelmondragon/supermarket-backend/pkg/migrate"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox"
	"github.com/angelmondragon/supermarket-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single maintenance cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	var lock cron.Lock = cron.LocalLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cron.LockTTL(cfg.Maintenance.Interval))
		if err != nil {
			logg.Error(context.Background(), "failed to create maintenance lock", err)
			os.Exit(1)
		}
		lock = redisLock
	} else {
		logg.Warn(context.Background(), "redis disabled, running maintenance without a distributed lock")
	}

	conn := dbClient.DB()
	outboxJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Name:   "outbox-retention",
		Logger: logg,
		DB:     dbClient,
		Delete: outbox.NewRepository(conn).DeletePublishedBefore,
		Days:   cron.OutboxRetentionDays(cfg.Maintenance.OutboxRetentionDays),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	dlqJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Name:   "outbox-dlq-retention",
		Logger: logg,
		DB:     dbClient,
		Delete: outbox.NewDLQRepository(conn).DeleteFailedBefore,
		Days:   cron.DLQRetentionDays(cfg.Maintenance.DLQRetentionDays),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dlq retention job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(outboxJob, dlqJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register maintenance jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(metrics.NewRegistry()),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Maintenance.Interval.String(),
		"jobs":     registry.Names(),
	})
	if *once {
		err := service.RunOnce(ctx)
		switch {
		case errors.Is(err, cron.ErrLockHeld):
			logg.Info(ctx, "maintenance lock held elsewhere, nothing to do")
		case err != nil:
			logg.Error(ctx, "maintenance cycle failed", err)
			os.Exit(1)
		default:
			logg.Info(ctx, "maintenance cycle complete")
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(cron.LockKeyFormat, env)
}
