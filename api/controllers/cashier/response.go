package cashier

import (
	"github.com/angelmondragon/supermarket-backend/api/controllers/cashier/dto"
	"github.com/angelmondragon/supermarket-backend/internal/purchases"
)

func newCreatePurchaseResponse(result *purchases.CreatePurchaseResult) dto.CreatePurchaseResponse {
	return dto.CreatePurchaseResponse{
		PurchaseID:  result.Purchase.ID,
		UserID:      result.CustomerID,
		IsNew:       result.IsNewCustomer,
		TotalAmount: result.Purchase.TotalAmount.InexactFloat64(),
	}
}

func newProductsResponse(products []purchases.ProductDTO) dto.ProductsResponse {
	out := make([]dto.Product, 0, len(products))
	for _, p := range products {
		out = append(out, dto.Product{Name: p.Name, Price: p.UnitPrice.InexactFloat64()})
	}
	return dto.ProductsResponse{Products: out}
}
