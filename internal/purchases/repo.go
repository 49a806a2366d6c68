package purchases

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/internal/repo"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
)

// Repository is the append-only purchase ledger.
type Repository struct {
	repo.Base
}

// NewRepository builds a ledger repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// Create appends a purchase row.
func (r *Repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.DB(ctx).Create(purchase).Error
}

// Exists reports whether a purchase id is already taken.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	return r.Base.Exists(ctx, &models.Purchase{}, "id", id)
}

// FindByID loads a purchase by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.DB(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// CountByCustomer returns how many ledger rows reference customerID.
func (r *Repository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Purchase{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// Import bulk-inserts historical purchases, skipping ids that already exist.
func (r *Repository) Import(ctx context.Context, rows []models.Purchase, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return r.InsertMissing(ctx, &rows, batchSize)
}
