package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	consenthandler "trialconsent/internal/consent/handler"
	"trialconsent/internal/platform/metrics"
	"trialconsent/pkg/platform/httputil"
	authmw "trialconsent/pkg/platform/middleware/auth"
	"trialconsent/pkg/platform/middleware/request"
	"trialconsent/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	consent      *consenthandler.Handler
	jwtValidator authmw.JWTValidator
	metrics      *metrics.Metrics
	health       func(ctx context.Context) error
	logger       *slog.Logger
}

// newRouter mounts the operational endpoints unauthenticated and the consent
// API behind staff bearer tokens.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(d.logger))
	r.Use(request.Logger(d.logger))
	r.Use(requesttime.Middleware)
	r.Use(d.metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.health(r.Context()); err != nil {
			d.logger.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.jwtValidator, d.logger))
		d.consent.Register(r)
	})
	return r
}
