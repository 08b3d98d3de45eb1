// Package httptransport assembles the router: middleware chain first, then the
// domain handlers. Business logic never lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commandhandler "podium/internal/command/handler"
	contenthandler "podium/internal/content/handler"
	"podium/internal/platform/middleware"
	registrationhandler "podium/internal/registration/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger          *slog.Logger
	TokenValidator  middleware.TokenValidator
	DevelopmentMode bool
	Content         *contenthandler.Handler
	Registrations   *registrationhandler.Handler
	Commands        *commandhandler.Handler
	// Health reports backend readiness; nil backends simply answer ok.
	Health func(ctx context.Context) error
}

// NewRouter wires the middleware chain and all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ResolvePrincipal(deps.TokenValidator, deps.DevelopmentMode, deps.Logger))
		deps.Content.Mount(r)
		deps.Registrations.Mount(r)
		deps.Commands.Mount(r)
	})

	return r
}
