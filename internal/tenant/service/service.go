package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"vacmetrics/internal/tenant/metrics"
	"vacmetrics/internal/tenant/models"
	dErrors "vacmetrics/pkg/domain-errors"
	"vacmetrics/pkg/platform/sentinel"
)

type ClientStore interface {
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, id int64) (*models.Client, error)
	FindBySlug(ctx context.Context, slug string) (*models.Client, error)
}

type ProfileStore interface {
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	FindByClientAndID(ctx context.Context, clientID, id int64) (*models.Profile, error)
	FindByClientAndName(ctx context.Context, clientID int64, name string) (*models.Profile, error)
	ListByClient(ctx context.Context, clientID int64) ([]*models.Profile, error)
}

// Service orchestrates client and profile management and resolution.
type Service struct {
	clients  ClientStore
	profiles ProfileStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(clients ClientStore, profiles ProfileStore, opts ...Option) *Service {
	s := &Service{clients: clients, profiles: profiles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveClient loads the tenant scope for an operation. Suspended and
// archived clients still resolve: their history stays queryable, and
// rejecting ingestion for them is the caller's decision, not a lookup
// failure.
func (s *Service) ResolveClient(ctx context.Context, clientID int64) (*models.Client, error) {
	start := time.Now()
	defer s.observeResolveClient(start)

	if clientID <= 0 {
		return nil, dErrors.New(dErrors.CodeReference, "client id is required")
	}
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeReference, "unknown client %d", clientID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	return client, nil
}

// ResolveProfile maps a profile reference (numeric id or name) to a profile
// row. The lookup always filters by client_id: a profile belonging to client
// A is never returned for a query scoped to client B, even though profile ids
// are globally unique in storage.
func (s *Service) ResolveProfile(ctx context.Context, clientID int64, ref string) (*models.Profile, error) {
	start := time.Now()
	defer s.observeResolveProfile(start)

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, dErrors.New(dErrors.CodeReference, "profile reference is empty")
	}

	var (
		profile *models.Profile
		err     error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		profile, err = s.profiles.FindByClientAndID(ctx, clientID, id)
	} else {
		profile, err = s.profiles.FindByClientAndName(ctx, clientID, ref)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeReference, "unknown profile %q for client %d", ref, clientID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

// CreateClient registers a new tenant.
func (s *Service) CreateClient(ctx context.Context, name, slug string, countryID int64, timezoneOffset int, planID int64) (*models.Client, error) {
	client, err := models.NewClient(name, strings.ToLower(strings.TrimSpace(slug)), countryID, timezoneOffset, planID, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "client slug must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}
	if s.metrics != nil {
		s.metrics.IncrementClientsCreated()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "client created", "client_id", client.ID, "slug", client.Slug)
	}
	return client, nil
}

// CreateProfile registers an analytical grouping under a client.
func (s *Service) CreateProfile(ctx context.Context, clientID int64, name string) (*models.Profile, error) {
	if _, err := s.ResolveClient(ctx, clientID); err != nil {
		return nil, err
	}
	profile, err := models.NewProfile(clientID, strings.TrimSpace(name), time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "profile name must be unique within the client")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}
	if s.metrics != nil {
		s.metrics.IncrementProfilesCreated()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "profile created", "client_id", clientID, "profile_id", profile.ID)
	}
	return profile, nil
}

// DeactivateProfile soft-disables a profile within its tenant scope.
func (s *Service) DeactivateProfile(ctx context.Context, clientID, profileID int64) (*models.Profile, error) {
	profile, err := s.profiles.FindByClientAndID(ctx, clientID, profileID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown profile %d for client %d", profileID, clientID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	profile.Deactivate(time.Now())
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	return profile, nil
}

// ListProfiles returns all profiles of a client.
func (s *Service) ListProfiles(ctx context.Context, clientID int64) ([]*models.Profile, error) {
	if _, err := s.ResolveClient(ctx, clientID); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list profiles")
	}
	return profiles, nil
}

func (s *Service) observeResolveClient(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveResolveClient(start)
	}
}

func (s *Service) observeResolveProfile(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveResolveProfile(start)
	}
}
