package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	analyticscontrollers "github.com/angelmondragon/supermarket-backend/api/controllers/analytics"
	"github.com/angelmondragon/supermarket-backend/internal/analytics"
)

// NewOwnerRouter mounts the read-only dashboard API.
func NewOwnerRouter(c Common, analyticsService analytics.Service) http.Handler {
	r := newBaseRouter(c)
	defaults := analyticscontrollers.Defaults{
		MinPurchases: c.Config.Analytics.DefaultMinPurchases,
		TopN:         c.Config.Analytics.DefaultTopN,
	}

	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Get("/unique-buyers", analyticscontrollers.UniqueBuyers(analyticsService, c.Logger))
		r.Get("/loyal-buyers", analyticscontrollers.LoyalBuyers(analyticsService, defaults, c.Logger))
		r.Get("/top-products", analyticscontrollers.TopProducts(analyticsService, defaults, c.Logger))
		r.Get("/summary", analyticscontrollers.Summary(analyticsService, defaults, c.Logger))
	})
	return r
}
