package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/internal/repo"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
)

// Repository exposes customer registry persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs a customers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByID loads a customer by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "customer_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Exists reports whether a customer with id is registered.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	return r.Base.Exists(ctx, &models.Customer{}, "customer_id", id)
}

// Create inserts a new customer.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.DB(ctx).Create(customer).Error
}

// ListIDs returns every customer id in registration order.
func (r *Repository) ListIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := r.DB(ctx).
		Model(&models.Customer{}).
		Order("created_at ASC").
		Order("customer_id ASC").
		Pluck("customer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// EnsureIDs registers any of ids that are not known yet.
func (r *Repository) EnsureIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.Customer, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.Customer{CustomerID: id})
	}
	return r.InsertMissing(ctx, &rows, 0)
}
