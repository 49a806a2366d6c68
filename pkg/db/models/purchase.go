package models

import (
	"time"

	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/supermarket-backend/pkg/db/types"
)

// Purchase is an append-only ledger row. TotalAmount is fixed at write time.
type Purchase struct {
	ID            string           `gorm:"column:id;primaryKey"`
	SupermarketID string           `gorm:"column:supermarket_id;not null"`
	CustomerID    string           `gorm:"column:customer_id;not null;index"`
	ItemsList     dbtypes.ItemList `gorm:"column:items_list;type:text;not null"`
	TotalAmount   decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (Purchase) TableName() string { return "purchases" }
