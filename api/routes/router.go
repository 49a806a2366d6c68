package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/supermarket-backend/api/controllers"
	"github.com/angelmondragon/supermarket-backend/api/middleware"
	"github.com/angelmondragon/supermarket-backend/api/responses"
	"github.com/angelmondragon/supermarket-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
)

// Common carries the dependencies both services mount.
type Common struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func newBaseRouter(c Common) chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(c.Logger),
		middleware.RequestID(c.Logger),
		middleware.Logging(c.Logger),
		middleware.Metrics(c.Metrics),
		middleware.CORS(c.Config.CORS),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(c.Config))
		r.Get("/ready", controllers.HealthReady(c.Config, c.Logger, c.DB, c.Redis))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(c.Gatherer))
	return r
}
