// Package requesttime pins a single "now" for the lifetime of a request so
// audit events and checkpoints written by one operator action share a timestamp.
package requesttime

import (
	"net/http"
	"time"

	"handoff/pkg/requestcontext"
)

// Middleware captures the current time and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithClock(time.Now)(next)
}

// MiddlewareWithClock is Middleware with an injectable clock.
func MiddlewareWithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
