package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vacmetrics/internal/analytics/metrics"
	"vacmetrics/internal/analytics/models"
	tenantmodels "vacmetrics/internal/tenant/models"
	domainerrors "vacmetrics/pkg/domain-errors"
)

// Store executes aggregation queries over stored snapshots.
type Store interface {
	Aggregate(ctx context.Context, req models.Request) ([]models.Row, error)
}

// TenantResolver validates that the requested client exists.
type TenantResolver interface {
	ResolveClient(ctx context.Context, clientID int64) (*tenantmodels.Client, error)
}

// Service answers aggregation queries. Requests are validated fail-fast
// before any data is touched; an empty result is a normal answer, not an
// error.
type Service struct {
	store   Store
	tenants TenantResolver
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, tenants TenantResolver, opts ...Option) *Service {
	s := &Service{
		store:   store,
		tenants: tenants,
		tracer:  otel.Tracer("vacmetrics/analytics"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query validates and runs one aggregation request. A zero From/To pair
// defaults to the trailing eight-week window aligned to a Monday.
func (s *Service) Query(ctx context.Context, req models.Request) ([]models.Row, error) {
	if err := validate(&req, time.Now()); err != nil {
		return nil, err
	}
	if _, err := s.tenants.ResolveClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "analytics.query", trace.WithAttributes(
		attribute.Int64("client.id", req.ClientID),
		attribute.String("bucket", string(req.Bucket)),
	))
	defer span.End()

	started := time.Now()
	rows, err := s.store.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveQuery(string(req.Bucket), time.Since(started).Seconds(), len(rows))
	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "analytics query",
			slog.Int64("client_id", req.ClientID),
			slog.String("bucket", string(req.Bucket)),
			slog.Int("rows", len(rows)),
			slog.Duration("took", time.Since(started)),
		)
	}
	return rows, nil
}

func validate(req *models.Request, now time.Time) error {
	if req.ClientID <= 0 {
		return domainerrors.New(domainerrors.CodeInvalidInput, "client id is required")
	}
	if req.Bucket == "" {
		req.Bucket = models.BucketDay
	}
	if !req.Bucket.IsValid() {
		return domainerrors.Newf(domainerrors.CodeInvalidInput, "unknown bucket %q", req.Bucket)
	}
	seen := make(map[models.Dimension]struct{}, len(req.GroupBy))
	for _, dim := range req.GroupBy {
		if !dim.IsValid() {
			return domainerrors.Newf(domainerrors.CodeInvalidInput, "unknown group dimension %q", dim)
		}
		if _, dup := seen[dim]; dup {
			return domainerrors.Newf(domainerrors.CodeInvalidInput, "duplicate group dimension %q", dim)
		}
		seen[dim] = struct{}{}
	}
	if req.MaxPublicationAgeDays < 0 {
		return domainerrors.New(domainerrors.CodeInvalidInput, "max publication age must not be negative")
	}
	if req.From.IsZero() && req.To.IsZero() {
		req.From, req.To = models.LookbackWindow(now)
	}
	if req.From.IsZero() || req.To.IsZero() {
		return domainerrors.New(domainerrors.CodeInvalidInput, "both range bounds are required")
	}
	if req.To.Before(req.From) {
		return domainerrors.New(domainerrors.CodeInvalidInput, "range end precedes range start")
	}
	return nil
}
