package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultDLQRetentionDays    = 90
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DeleteBeforeFunc removes rows older than cutoff and reports how many went.
type DeleteBeforeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

type RetentionJobParams struct {
	Name   string
	Logger *logger.Logger
	DB     txRunner
	Delete DeleteBeforeFunc
	Days   int
}

type retentionJob struct {
	name   string
	logg   *logger.Logger
	db     txRunner
	delete DeleteBeforeFunc
	days   int
	now    func() time.Time
}

// NewRetentionJob builds a job that prunes rows older than Days.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("job name required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Delete == nil {
		return nil, fmt.Errorf("delete func required")
	}
	if params.Days <= 0 {
		return nil, fmt.Errorf("%s: retention days must be positive", params.Name)
	}
	return &retentionJob{
		name:   params.Name,
		logg:   params.Logger,
		db:     params.DB,
		delete: params.Delete,
		days:   params.Days,
		now:    time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.days) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.delete(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}), "retention cleanup complete")
	return nil
}

// OutboxRetentionDays returns days, or the default when unset.
func OutboxRetentionDays(days int) int {
	if days <= 0 {
		return defaultOutboxRetentionDays
	}
	return days
}

// DLQRetentionDays returns days, or the default when unset.
func DLQRetentionDays(days int) int {
	if days <= 0 {
		return defaultDLQRetentionDays
	}
	return days
}
