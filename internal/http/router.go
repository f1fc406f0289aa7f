// Package httpapi assembles the service router: public health and metrics
// endpoints plus the JWT-guarded analysis API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benderprog/analiz-svodok/internal/analysis/handler"
	"github.com/benderprog/analiz-svodok/internal/platform/middleware"
	"github.com/benderprog/analiz-svodok/pkg/httputil"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// NewRouter wires all endpoints. Health and metrics stay unauthenticated;
// everything under /api requires a valid bearer token.
func NewRouter(h *handler.Handler, validator middleware.JWTValidator, logger *slog.Logger, checks map[string]HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", handleHealth(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		h.Register(r)
	})
	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				components[name] = "ok"
			}
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		httputil.WriteJSON(w, status, body)
	}
}
