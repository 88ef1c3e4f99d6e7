package testutil

import (
	"net/http"
	"time"

	"vacmetrics/pkg/requestcontext"
)

// WithClientScope binds a request to a tenant, the way the ingest handler
// does before calling the service.
func WithClientScope(req *http.Request, clientID int64) *http.Request {
	ctx := requestcontext.WithClientScope(req.Context(), clientID)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped "now", so tests control the default
// observation date.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), now)
	return req.WithContext(ctx)
}

// WithRequestID attaches a request id for log and response correlation.
func WithRequestID(req *http.Request, id string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), id)
	return req.WithContext(ctx)
}
