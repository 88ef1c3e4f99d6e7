// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services read them without
// importing net/http.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientScopeKey struct{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientScope retrieves the tenant scope (client id) carried by the request.
// Returns 0 when unscoped.
func ClientScope(ctx context.Context) int64 {
	if id, ok := ctx.Value(clientScopeKey{}).(int64); ok {
		return id
	}
	return 0
}

// WithClientScope injects the tenant scope into the context.
func WithClientScope(ctx context.Context, clientID int64) context.Context {
	return context.WithValue(ctx, clientScopeKey{}, clientID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts such as workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for tests and for
// batch workers that want one consistent timestamp per batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
