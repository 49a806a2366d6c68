package cashier

import (
	"net/http"

	"github.com/angelmondragon/supermarket-backend/api/controllers/cashier/dto"
	"github.com/angelmondragon/supermarket-backend/api/responses"
	"github.com/angelmondragon/supermarket-backend/api/validators"
	"github.com/angelmondragon/supermarket-backend/internal/purchases"
	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

// CreatePurchase records a checkout and returns the resolved customer.
func CreatePurchase(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		var payload dto.CreatePurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSupermarketID(ctx, payload.SupermarketID)
		}
		result, err := svc.CreatePurchase(ctx, toCreatePurchaseInput(payload))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCreatePurchaseResponse(result))
	}
}

// ListCustomers returns every registered customer id.
func ListCustomers(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		ids, err := svc.ListCustomerIDs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.CustomersResponse{Customers: ids})
	}
}

// ListProducts returns the catalog for the cashier's item picker.
func ListProducts(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductsResponse(products))
	}
}
