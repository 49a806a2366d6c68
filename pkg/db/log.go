package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

func utcNow() time.Time { return time.Now().UTC() }

// statementLogger routes slow statements and driver errors through the
// service logger. Without a logger or a threshold, GORM stays silent.
func statementLogger(logg *logger.Logger, cfg config.DBConfig) gormlogger.Interface {
	if logg == nil || cfg.SlowQuery <= 0 {
		return gormlogger.Discard
	}
	return gormlogger.New(&gormWriter{logg: logg, driver: driverName(cfg)}, gormlogger.Config{
		SlowThreshold:             cfg.SlowQuery,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}

type gormWriter struct {
	logg   *logger.Logger
	driver string
}

func (w *gormWriter) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	ctx := w.logg.WithFields(context.Background(), map[string]any{
		"driver":    w.driver,
		"statement": msg,
	})
	w.logg.Warn(ctx, "db.statement")
}
