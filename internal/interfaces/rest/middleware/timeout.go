package middleware

import (
	"context"
	"net/http"
	"time"
)

const timeoutBody = `{"success":false,"message":"request timeout","error":{"code":"TIMEOUT","message":"request timeout"}}`

// Timeout bounds the handler with a context deadline and answers 503 with the error envelope
// when it runs over.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			w.Header().Set("Content-Type", "application/json")
			http.TimeoutHandler(next, timeout, timeoutBody).ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
