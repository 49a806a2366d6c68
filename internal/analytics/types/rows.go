package types

// LoyalBuyerRow is the grouped purchase count returned by the ledger query.
type LoyalBuyerRow struct {
	CustomerID    string `gorm:"column:customer_id"`
	PurchaseCount int64  `gorm:"column:purchase_count"`
}
