package dto

// CreatePurchaseRequest is the cashier's checkout payload. user_id is
// optional; an unknown or missing id registers a new customer.
type CreatePurchaseRequest struct {
	SupermarketID string   `json:"supermarket_id" validate:"required"`
	UserID        *string  `json:"user_id"`
	ItemsList     []string `json:"items_list" validate:"required,dive,itemname"`
}

// CreatePurchaseResponse echoes the committed purchase.
type CreatePurchaseResponse struct {
	PurchaseID  string  `json:"purchase_id"`
	UserID      string  `json:"user_id"`
	IsNew       bool    `json:"is_new"`
	TotalAmount float64 `json:"total_amount"`
}

type CustomersResponse struct {
	Customers []string `json:"customers"`
}

type Product struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type ProductsResponse struct {
	Products []Product `json:"products"`
}
