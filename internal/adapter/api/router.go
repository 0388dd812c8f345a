package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/V4T54L/realm-provisioner/internal/adapter/api/handler"
	"github.com/V4T54L/realm-provisioner/internal/adapter/api/middleware"
	"github.com/V4T54L/realm-provisioner/internal/adapter/metrics"
	"github.com/V4T54L/realm-provisioner/internal/usecase"
)

// NewRouter creates and configures the HTTP router for the realm API.
func NewRouter(
	logger *slog.Logger,
	svc *usecase.RealmService,
	m *metrics.RealmMetrics,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	realms := handler.NewRealmHandler(svc, logger)
	health := handler.NewHealthHandler(svc, logger)

	// Health checks
	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)

	// Routes
	r.Route("/realms", func(r chi.Router) {
		r.Post("/", realms.Create)
		r.Get("/", realms.List)
		r.Get("/{realm_name}", realms.Get)
		r.Put("/{realm_name}", realms.Update)
		r.Delete("/{realm_name}", realms.Delete)
	})

	return r
}
