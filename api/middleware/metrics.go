package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
)

// Metrics records request counts and latency labelled by the matched chi
// route pattern. Unrouted 404s share the "unmatched" label.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			if route == r.URL.Path && status == http.StatusNotFound {
				route = "unmatched"
			}
			m.Observe(r.Method, route, status, time.Since(start))
		})
	}
}

// routePattern returns the chi pattern that served r, or the raw path when
// no route matched.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
