// Package httptransport assembles the public HTTP surface: middleware chain,
// module handlers, health and metrics endpoints.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vacmetrics/pkg/platform/httputil"
	"vacmetrics/pkg/platform/middleware/clientip"
	"vacmetrics/pkg/platform/middleware/requestid"
	"vacmetrics/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of one dependency.
type HealthChecker func(ctx context.Context) error

// NewRouter wires middleware, module handlers, and operational endpoints.
func NewRouter(handlers []Registrar, health map[string]HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(clientip.Middleware)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth(health))
	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := make(map[string]string, len(checks)+1)
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		if status == http.StatusOK {
			body["status"] = "ok"
		} else {
			body["status"] = "degraded"
		}
		httputil.WriteJSON(w, status, body)
	}
}
