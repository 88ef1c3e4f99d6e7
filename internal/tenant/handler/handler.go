package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vacmetrics/internal/tenant/models"
	dErrors "vacmetrics/pkg/domain-errors"
	"vacmetrics/pkg/platform/httputil"
	"vacmetrics/pkg/requestcontext"
)

// Service defines the interface for tenant administration.
type Service interface {
	CreateClient(ctx context.Context, name, slug string, countryID int64, timezoneOffset int, planID int64) (*models.Client, error)
	ResolveClient(ctx context.Context, clientID int64) (*models.Client, error)
	CreateProfile(ctx context.Context, clientID int64, name string) (*models.Profile, error)
	DeactivateProfile(ctx context.Context, clientID, profileID int64) (*models.Profile, error)
	ListProfiles(ctx context.Context, clientID int64) ([]*models.Profile, error)
}

// Handler wires tenant administration endpoints to the tenant service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenant endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/clients", h.HandleCreateClient)
	r.Get("/v1/clients/{clientID}", h.HandleGetClient)
	r.Post("/v1/clients/{clientID}/profiles", h.HandleCreateProfile)
	r.Get("/v1/clients/{clientID}/profiles", h.HandleListProfiles)
	r.Delete("/v1/clients/{clientID}/profiles/{profileID}", h.HandleDeactivateProfile)
}

// CreateClientRequest registers one tenant.
type CreateClientRequest struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	CountryID      int64  `json:"country_id"`
	TimezoneOffset int    `json:"timezone_offset"`
	PlanID         int64  `json:"plan_id"`
}

// CreateProfileRequest registers one hiring profile under a tenant.
type CreateProfileRequest struct {
	Name string `json:"name"`
}

// HandleCreateClient handles POST /v1/clients requests.
func (h *Handler) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.Decode[CreateClientRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	client, err := h.service.CreateClient(ctx, req.Name, req.Slug, req.CountryID, req.TimezoneOffset, req.PlanID)
	if err != nil {
		h.logger.ErrorContext(ctx, "client creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"slug", req.Slug,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "client created",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", client.ID,
		"slug", client.Slug,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, client)
}

// HandleGetClient handles GET /v1/clients/{clientID} requests.
func (h *Handler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := pathID(w, r, "clientID")
	if !ok {
		return
	}
	client, err := h.service.ResolveClient(ctx, clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

// HandleCreateProfile handles POST /v1/clients/{clientID}/profiles requests.
func (h *Handler) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := pathID(w, r, "clientID")
	if !ok {
		return
	}
	req, ok := httputil.Decode[CreateProfileRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	profile, err := h.service.CreateProfile(ctx, clientID, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"client_id", clientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, profile)
}

// HandleListProfiles handles GET /v1/clients/{clientID}/profiles requests.
func (h *Handler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := pathID(w, r, "clientID")
	if !ok {
		return
	}
	profiles, err := h.service.ListProfiles(ctx, clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	httputil.WriteJSON(w, http.StatusOK, profiles)
}

// HandleDeactivateProfile handles DELETE /v1/clients/{clientID}/profiles/{profileID}
// requests. Deactivation keeps the row so stored snapshots stay attributable.
func (h *Handler) HandleDeactivateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, ok := pathID(w, r, "clientID")
	if !ok {
		return
	}
	profileID, ok := pathID(w, r, "profileID")
	if !ok {
		return
	}

	profile, err := h.service.DeactivateProfile(ctx, clientID, profileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "profile deactivated",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID,
		"profile_id", profileID,
	)
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}
