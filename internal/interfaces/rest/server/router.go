// Package server assembles the chi router of the payments API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/interfaces/rest"
	"github.com/gonomads/payment-service/internal/interfaces/rest/handlers"
	"github.com/gonomads/payment-service/internal/interfaces/rest/middleware"
)

type Options struct {
	Handlers       *handlers.Handlers
	Document       *api.Document
	Metrics        http.Handler
	Observer       middleware.HTTPObserver
	Health         func(ctx context.Context) error
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(opts.Logger, opts.Observer))
	r.Use(middleware.Recovery(opts.Logger))
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/healthz", healthz(opts.Health, opts.Logger))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.Document != nil {
		r.Method(http.MethodGet, "/openapi.json", opts.Document)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rest.WriteJSON(w, http.StatusNotFound, rest.NewErrorResponse("NOT_FOUND", "route not found"))
	})

	return api.HandlerWithOptions(opts.Handlers, api.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: rest.ParamErrorHandler(opts.Logger),
	})
}

func healthz(check func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.Warn("health check failed", "error", err)
				resp := rest.NewErrorResponse(application.ErrCodeInternal, "dependency unavailable")
				resp.Message = rest.Ptr("unhealthy")
				rest.WriteJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
		rest.WriteJSON(w, http.StatusOK, api.Envelope{Success: true, Message: rest.Ptr("ok")})
	}
}
