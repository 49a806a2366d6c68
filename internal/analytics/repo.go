package analytics

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/internal/analytics/types"
	"github.com/angelmondragon/supermarket-backend/internal/repo"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	"github.com/angelmondragon/supermarket-backend/pkg/itemlist"
)

// Reader is the read side of the purchase ledger the aggregates run on.
type Reader interface {
	UniqueBuyerCount(ctx context.Context) (int64, error)
	LoyalBuyerRows(ctx context.Context, minPurchases int) ([]types.LoyalBuyerRow, error)
	EachItemList(ctx context.Context, fn func(items []string)) error
}

// Repository runs the aggregate queries against the purchases table.
type Repository struct {
	repo.Base
}

// NewRepository builds an analytics repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// UniqueBuyerCount counts distinct customers that appear in the ledger.
func (r *Repository) UniqueBuyerCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Purchase{}).
		Distinct("customer_id").
		Count(&count).Error
	return count, err
}

// LoyalBuyerRows groups purchases by customer and keeps groups with at least
// minPurchases rows, highest count first.
func (r *Repository) LoyalBuyerRows(ctx context.Context, minPurchases int) ([]types.LoyalBuyerRow, error) {
	rows := []types.LoyalBuyerRow{}
	err := r.DB(ctx).
		Model(&models.Purchase{}).
		Select("customer_id, COUNT(*) AS purchase_count").
		Group("customer_id").
		Having("COUNT(*) >= ?", minPurchases).
		Order("purchase_count DESC").
		Order("customer_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// EachItemList streams every purchase's parsed item list to fn.
func (r *Repository) EachItemList(ctx context.Context, fn func(items []string)) error {
	rows, err := r.DB(ctx).
		Model(&models.Purchase{}).
		Select("items_list").
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var stored string
		if err := rows.Scan(&stored); err != nil {
			return err
		}
		fn(itemlist.Split(stored))
	}
	return rows.Err()
}
