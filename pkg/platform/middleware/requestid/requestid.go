// Package requestid assigns each request an identifier for log correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"vacmetrics/pkg/requestcontext"
)

const Header = "X-Request-ID"

// Middleware reuses the caller's request id when present, otherwise mints
// one, and echoes it back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
