package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/supermarket-backend/api/controllers/cashier"
	"github.com/angelmondragon/supermarket-backend/api/middleware"
	"github.com/angelmondragon/supermarket-backend/internal/purchases"
	pkgredis "github.com/angelmondragon/supermarket-backend/pkg/redis"
)

// NewCashierRouter mounts the point-of-sale API. idempotency may be nil.
func NewCashierRouter(c Common, purchaseService purchases.Service, idempotency pkgredis.IdempotencyStore) http.Handler {
	r := newBaseRouter(c)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Idempotency(idempotency, c.Logger, middleware.DefaultIdempotencyTTL)).
			Post("/purchases", cashier.CreatePurchase(purchaseService, c.Logger))
		r.Get("/customers", cashier.ListCustomers(purchaseService, c.Logger))
		r.Get("/products", cashier.ListProducts(purchaseService, c.Logger))
	})
	return r
}
