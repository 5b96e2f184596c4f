package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/interfaces/rest"
)

// Recovery turns a handler panic into a 500 envelope.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error(
					"panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", chimw.GetReqID(r.Context()),
					"stack", string(debug.Stack()),
				)

				rest.WriteError(w, application.NewInternalError(fmt.Errorf("panic: %v", rec)), logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
