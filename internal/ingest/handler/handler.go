package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vacmetrics/internal/ingest/service"
	"vacmetrics/internal/snapshot/models"
	dErrors "vacmetrics/pkg/domain-errors"
	"vacmetrics/pkg/platform/httputil"
	"vacmetrics/pkg/platform/middleware/clientip"
	"vacmetrics/pkg/requestcontext"
)

// Service defines the interface for batch ingestion.
type Service interface {
	IngestBatch(ctx context.Context, clientID int64, records []models.RawRecord) (*service.BatchOutcome, error)
}

// Handler wires ingestion endpoints to the ingest service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ingestion endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/clients/{clientID}/snapshots", h.HandleIngest)
}

// BatchRequest is the upload payload: raw observations as collected.
type BatchRequest struct {
	Records []models.RawRecord `json:"records"`
}

// HandleIngest handles POST /v1/clients/{clientID}/snapshots requests.
// Rejected records never fail the batch; a 200 reply carries the per-record
// outcomes.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil || clientID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "client id must be a positive integer"))
		return
	}

	req, ok := httputil.Decode[BatchRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if len(req.Records) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "batch contains no records"))
		return
	}

	outcome, err := h.service.IngestBatch(requestcontext.WithClientScope(ctx, clientID), clientID, req.Records)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch ingestion failed",
			"request_id", requestID,
			"client_id", clientID,
			"remote", clientip.FromContext(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch ingested",
		"request_id", requestID,
		"client_id", clientID,
		"remote", clientip.FromContext(ctx),
		"received", outcome.Received,
		"rejected", outcome.Rejected,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, outcome)
}
