package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

// SQLSource is satisfied by *db.Client.
type SQLSource interface {
	SQL() (*sql.DB, error)
}

// AutoRunEnabled reports whether services should migrate on boot: only in
// dev with SUPERMARKET_FEATURE_AUTO_MIGRATE set.
func AutoRunEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev applies pending migrations when AutoRunEnabled and logs the
// schema version before and after.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, src SQLSource) error {
	if !AutoRunEnabled(cfg) {
		return nil
	}
	sqlDB, err := src.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	from, err := Version(ctx, sqlDB, cfg.DB.Driver)
	if err != nil {
		return err
	}
	if err := Up(ctx, sqlDB, cfg.DB.Driver); err != nil {
		return err
	}
	to, err := Version(ctx, sqlDB, cfg.DB.Driver)
	if err != nil {
		return err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"env":          cfg.App.Env,
			"dialect":      Dialect(cfg.DB.Driver),
			"from_version": from,
			"to_version":   to,
		}), "dev migrations applied")
	}
	return nil
}
