package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/synergy-ops/synergy-ops/internal/auth"
	"github.com/synergy-ops/synergy-ops/internal/categories"
	"github.com/synergy-ops/synergy-ops/internal/chat"
	"github.com/synergy-ops/synergy-ops/internal/live"
	"github.com/synergy-ops/synergy-ops/internal/observability"
	"github.com/synergy-ops/synergy-ops/internal/pricing"
	"github.com/synergy-ops/synergy-ops/internal/purchaseorders"
	"github.com/synergy-ops/synergy-ops/internal/rows"
	"github.com/synergy-ops/synergy-ops/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler       *auth.Handler
	RowsHandler       *rows.Handler
	CategoriesHandler *categories.Handler
	POHandler         *purchaseorders.Handler
	ChatHandler       *chat.Handler
	LiveHandler       *live.Handler
	PricingHandler    *pricing.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	mwCfg := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}
	for _, mw := range BaseMiddleware(mwCfg) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The event stream lives outside the API chain; see APIMiddleware.
	if params.LiveHandler != nil {
		r.Route("/events", params.LiveHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		for _, mw := range APIMiddleware(mwCfg) {
			r.Use(mw)
		}
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/rows", params.RowsHandler.MountRoutes)
		r.Route("/categories", params.CategoriesHandler.MountRoutes)
		if params.POHandler != nil {
			r.Route("/purchase-orders", params.POHandler.MountRoutes)
		}
		if params.ChatHandler != nil {
			r.Route("/chat", params.ChatHandler.MountRoutes)
		}
		if params.PricingHandler != nil {
			r.Route("/pricing", params.PricingHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
