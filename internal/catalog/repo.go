package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/supermarket-backend/internal/repo"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
)

// Repository exposes read access to the product catalog plus the bulk upsert
// used by seeding.
type Repository struct {
	repo.Base
}

// NewRepository builds a catalog repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByName returns gorm.ErrRecordNotFound when no product carries name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("product_name = ?", name).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByNames resolves the given names in one query. Missing names are simply
// absent from the result.
func (r *Repository) FindByNames(ctx context.Context, names []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("product_name IN ?", names).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ProductName] = p
	}
	return out, nil
}

// List returns the whole catalog ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.DB(ctx).Order("product_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert inserts products, overwriting the price of names that already exist.
func (r *Repository) Upsert(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"unit_price"}),
		}).
		Create(&products).Error
}
