package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vacmetrics/internal/reference/models"
	"vacmetrics/pkg/platform/httputil"
	"vacmetrics/pkg/requestcontext"
)

// Service defines the interface for reference data administration.
type Service interface {
	AddCountry(ctx context.Context, country *models.Country) error
	AddRegion(ctx context.Context, region *models.Region) error
	AddCity(ctx context.Context, city *models.City) error
}

// Handler wires reference administration endpoints to the registry. Adding
// canonical entries invalidates the resolution cache, so already-degraded
// snapshots re-resolve on their next ingestion.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts reference endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/reference/countries", h.HandleAddCountry)
	r.Post("/v1/reference/regions", h.HandleAddRegion)
	r.Post("/v1/reference/cities", h.HandleAddCity)
}

// HandleAddCountry handles POST /v1/reference/countries requests.
func (h *Handler) HandleAddCountry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	country, ok := httputil.Decode[models.Country](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := h.service.AddCountry(ctx, &country); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "country added",
		"request_id", requestcontext.RequestID(ctx),
		"country_id", country.ID,
		"name", country.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, country)
}

// HandleAddRegion handles POST /v1/reference/regions requests.
func (h *Handler) HandleAddRegion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	region, ok := httputil.Decode[models.Region](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := h.service.AddRegion(ctx, &region); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "region added",
		"request_id", requestcontext.RequestID(ctx),
		"region_id", region.ID,
		"country_id", region.CountryID,
		"name", region.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, region)
}

// HandleAddCity handles POST /v1/reference/cities requests.
func (h *Handler) HandleAddCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	city, ok := httputil.Decode[models.City](w, r, h.logger, ctx)
	if !ok {
		return
	}
	if err := h.service.AddCity(ctx, &city); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "city added",
		"request_id", requestcontext.RequestID(ctx),
		"city_id", city.ID,
		"region_id", city.RegionID,
		"name", city.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, city)
}
