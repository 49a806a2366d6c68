package cashier

import (
	"github.com/angelmondragon/supermarket-backend/api/controllers/cashier/dto"
	"github.com/angelmondragon/supermarket-backend/internal/purchases"
)

func toCreatePurchaseInput(payload dto.CreatePurchaseRequest) purchases.CreatePurchaseInput {
	items := make([]string, len(payload.ItemsList))
	copy(items, payload.ItemsList)
	return purchases.CreatePurchaseInput{
		SupermarketID: payload.SupermarketID,
		CustomerID:    payload.UserID,
		Items:         items,
	}
}
