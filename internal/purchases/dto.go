package purchases

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
)

// CreatePurchaseInput is the cashier's request. CustomerID nil or blank means
// an anonymous buyer who gets a fresh id.
type CreatePurchaseInput struct {
	SupermarketID string
	CustomerID    *string
	Items         []string
}

// PurchaseDTO is the committed ledger row.
type PurchaseDTO struct {
	ID            string          `json:"id"`
	SupermarketID string          `json:"supermarket_id"`
	CustomerID    string          `json:"customer_id"`
	Items         []string        `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreatePurchaseResult carries the purchase plus how the customer was resolved.
type CreatePurchaseResult struct {
	Purchase      PurchaseDTO
	CustomerID    string
	IsNewCustomer bool
}

// ProductDTO is a catalog entry as shown to the cashier.
type ProductDTO struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func purchaseFromModel(m *models.Purchase) PurchaseDTO {
	items := make([]string, len(m.ItemsList))
	copy(items, m.ItemsList)
	return PurchaseDTO{
		ID:            m.ID,
		SupermarketID: m.SupermarketID,
		CustomerID:    m.CustomerID,
		Items:         items,
		TotalAmount:   m.TotalAmount,
		CreatedAt:     m.CreatedAt,
	}
}
