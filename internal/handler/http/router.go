package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/auth"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/metrics"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/review"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Orders         order.Service
	Auth           auth.Service
	Catalog        catalog.Service
	Reviews        review.Service
	Tokens         TokenParser
	DB             Pinger
	Metrics        *metrics.ServerMetrics
	MetricsHandler http.Handler
}

func NewRouter(deps Dependencies) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}

	router.Get("/health", healthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		router.Handle("/metrics", deps.MetricsHandler)
	}

	orderHandler := NewOrderHandler(deps.Orders)
	authHandler := NewAuthHandler(deps.Auth)
	catalogHandler := NewCatalogHandler(deps.Catalog)
	reviewHandler := NewReviewHandler(deps.Reviews)

	router.Route("/api", func(api chi.Router) {
		authHandler.RegisterPublicRoutes(api)
		catalogHandler.RegisterRoutes(api)
		reviewHandler.RegisterPublicRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(Authenticate(deps.Tokens))
			authHandler.RegisterRoutes(protected)
			orderHandler.RegisterRoutes(protected, RequireAdmin(deps.Auth))
			reviewHandler.RegisterRoutes(protected)
		})
	})

	return router
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				log.Error().Err(err).Msg("Health check failed: database unreachable")
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
	}
}
