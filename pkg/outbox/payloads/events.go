package payloads

import "time"

// PurchaseCreatedEvent is emitted once a purchase is committed to the ledger.
type PurchaseCreatedEvent struct {
	PurchaseID    string    `json:"purchase_id"`
	SupermarketID string    `json:"supermarket_id"`
	CustomerID    string    `json:"customer_id"`
	NewCustomer   bool      `json:"new_customer"`
	Items         []string  `json:"items"`
	TotalAmount   string    `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// CustomerCreatedEvent is emitted when a purchase implicitly registers a buyer.
type CustomerCreatedEvent struct {
	CustomerID    string `json:"customer_id"`
	SupermarketID string `json:"supermarket_id"`
}
