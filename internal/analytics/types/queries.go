package types

// LoyalBuyer is a customer whose purchase count reached the loyalty threshold.
type LoyalBuyer struct {
	CustomerID string `json:"user_id"`
	Purchases  int64  `json:"purchases"`
}

// ProductCount is how many times a product name appears across every
// purchase's item list.
type ProductCount struct {
	Product string `json:"product"`
	Count   int64  `json:"count"`
}

// Summary bundles the three dashboard aggregates.
type Summary struct {
	UniqueBuyers int64          `json:"unique_buyers"`
	LoyalBuyers  []LoyalBuyer   `json:"loyal_buyers"`
	TopProducts  []ProductCount `json:"top_products"`
}
