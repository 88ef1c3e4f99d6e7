package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vacmetrics/internal/analytics/models"
	dErrors "vacmetrics/pkg/domain-errors"
	"vacmetrics/pkg/platform/httputil"
	"vacmetrics/pkg/requestcontext"
)

// Service defines the interface for aggregation queries.
type Service interface {
	Query(ctx context.Context, req models.Request) ([]models.Row, error)
}

// Handler wires analytics endpoints to the analytics service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts analytics endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/clients/{clientID}/analytics", h.HandleQuery)
}

// QueryResponse wraps the aggregated rows; an empty result is a normal reply.
type QueryResponse struct {
	Rows []models.Row `json:"rows"`
}

// HandleQuery handles GET /v1/clients/{clientID}/analytics requests. The
// range, bucket, grouping and filters arrive as query parameters; omitting
// from/to falls back to the default trailing window.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil || clientID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "client id must be a positive integer"))
		return
	}

	req, err := parseRequest(r, clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.service.Query(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "analytics query failed",
			"request_id", requestID,
			"client_id", clientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "analytics query served",
		"request_id", requestID,
		"client_id", clientID,
		"rows", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if rows == nil {
		rows = []models.Row{}
	}
	httputil.WriteJSON(w, http.StatusOK, QueryResponse{Rows: rows})
}

func parseRequest(r *http.Request, clientID int64) (models.Request, error) {
	q := r.URL.Query()
	req := models.Request{
		ClientID: clientID,
		Bucket:   models.Bucket(q.Get("bucket")),
		Filters: models.Filters{
			Profile:        q.Get("profile"),
			City:           q.Get("city"),
			Region:         q.Get("region"),
			Specialization: q.Get("specialization"),
			Source:         q.Get("source"),
		},
	}

	var err error
	if req.From, err = parseDate(q.Get("from")); err != nil {
		return req, dErrors.New(dErrors.CodeInvalidInput, "from must be a YYYY-MM-DD date")
	}
	if req.To, err = parseDate(q.Get("to")); err != nil {
		return req, dErrors.New(dErrors.CodeInvalidInput, "to must be a YYYY-MM-DD date")
	}
	if raw := q.Get("max_publication_age_days"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			return req, dErrors.New(dErrors.CodeInvalidInput, "max_publication_age_days must be an integer")
		}
		req.MaxPublicationAgeDays = age
	}
	for _, dim := range q["group_by"] {
		req.GroupBy = append(req.GroupBy, models.Dimension(dim))
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
