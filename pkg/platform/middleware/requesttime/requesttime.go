// Package requesttime provides middleware for request-scoped time.
// Every gate and service in a single HTTP request sees the same "now", so an
// expiry check and the expiry written by the callback agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"aps-gateway/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context for consistent time references throughout the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
