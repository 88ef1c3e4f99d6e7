// Package requesttime pins a single "now" for the whole request, so every
// snapshot normalized in one batch defaults to the same observation date.
package requesttime

import (
	"net/http"
	"time"

	"vacmetrics/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
