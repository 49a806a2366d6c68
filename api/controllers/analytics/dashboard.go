package analytics

import (
	"net/http"

	"github.com/angelmondragon/supermarket-backend/api/responses"
	"github.com/angelmondragon/supermarket-backend/internal/analytics"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

func UniqueBuyers(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		count, err := service.UniqueBuyerCount(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"unique_buyers": count})
	}
}

func LoyalBuyers(service analytics.Service, defaults Defaults, logg *logger.Logger) http.HandlerFunc {
	defaults = defaults.withFallbacks()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		minPurchases, err := minPurchasesParam(r, defaults)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		buyers, err := service.LoyalBuyers(ctx, minPurchases)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"loyal_buyers": buyers})
	}
}

func TopProducts(service analytics.Service, defaults Defaults, logg *logger.Logger) http.HandlerFunc {
	defaults = defaults.withFallbacks()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		topN, err := topNParam(r, defaults)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		products, err := service.TopProducts(ctx, topN)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"top_products": products})
	}
}

// Summary returns all three aggregates in one response for the dashboard's
// full refresh.
func Summary(service analytics.Service, defaults Defaults, logg *logger.Logger) http.HandlerFunc {
	defaults = defaults.withFallbacks()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		minPurchases, err := minPurchasesParam(r, defaults)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		topN, err := topNParam(r, defaults)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := service.Summary(ctx, minPurchases, topN)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
