// Package repo holds the plumbing shared by the domain repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base wraps the gorm handle a repository was built with. The handle may be a
// pool or an open transaction; callers never need to know which.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Exists reports whether any row of model has column = value.
func (b Base) Exists(ctx context.Context, model any, column string, value any) (bool, error) {
	var count int64
	err := b.DB(ctx).
		Model(model).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMissing inserts rows in batches and silently skips any row whose key
// is already present.
func (b Base) InsertMissing(ctx context.Context, rows any, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	return b.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, batchSize).Error
}
