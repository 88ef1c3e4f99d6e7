// Package clientip records the originating address of ingestion requests so
// batch logs can attribute uploads to a collector host.
package clientip

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey struct{}

// Middleware stores the resolved client address in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contextKey{}, FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves the client address stored by Middleware.
func FromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKey{}).(string); ok {
		return ip
	}
	return ""
}

// FromRequest resolves the original client address, looking through proxies.
func FromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first entry is the originating client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
