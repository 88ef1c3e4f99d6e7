package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vacmetrics/internal/ingest/metrics"
	"vacmetrics/internal/snapshot/models"
	"vacmetrics/internal/snapshot/store"
	domainerrors "vacmetrics/pkg/domain-errors"
	"vacmetrics/pkg/platform/sentinel"
	"vacmetrics/pkg/requestcontext"
)

// Normalizer turns one raw observation into a canonical snapshot.
type Normalizer interface {
	Normalize(ctx context.Context, raw models.RawRecord, now time.Time) (*models.Snapshot, error)
}

// Publisher emits the outcome of a completed batch. Publishing is
// best-effort: a broker failure never fails the batch.
type Publisher interface {
	PublishBatchOutcome(ctx context.Context, outcome BatchOutcome) error
}

// Outcome classifies what happened to a single record.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeUpdated  Outcome = "updated"
	OutcomeRejected Outcome = "rejected"
)

// RecordResult reports the fate of one record, by its position in the batch.
type RecordResult struct {
	Index      int                `json:"index"`
	Outcome    Outcome            `json:"outcome"`
	SnapshotID int64              `json:"snapshot_id,omitempty"`
	Degraded   bool               `json:"degraded,omitempty"`
	Code       domainerrors.Code  `json:"code,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// BatchOutcome summarizes one processed batch.
type BatchOutcome struct {
	RequestID string         `json:"request_id,omitempty"`
	ClientID  int64          `json:"client_id"`
	Received  int            `json:"received"`
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Rejected  int            `json:"rejected"`
	Degraded  int            `json:"degraded"`
	Results   []RecordResult `json:"results"`
}

// Service runs batch ingestion: each record is normalized and stored
// independently, so one bad record never poisons its batch.
type Service struct {
	normalizer Normalizer
	snapshots  store.Store
	publisher  Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	workers       int
	recordTimeout time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithRecordTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recordTimeout = d
		}
	}
}

func New(normalizer Normalizer, snapshots store.Store, opts ...Option) *Service {
	s := &Service{
		normalizer:    normalizer,
		snapshots:     snapshots,
		tracer:        otel.Tracer("vacmetrics/ingest"),
		workers:       8,
		recordTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestBatch processes records concurrently and reports a per-record result
// for every input, in input order. The batch itself only errors when the
// caller's context dies; individual failures surface inside the results.
func (s *Service) IngestBatch(ctx context.Context, clientID int64, records []models.RawRecord) (*BatchOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.batch", trace.WithAttributes(
		attribute.Int64("client.id", clientID),
		attribute.Int("batch.size", len(records)),
	))
	defer span.End()

	started := time.Now()
	now := requestcontext.Now(ctx)
	results := make([]RecordResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, raw := range records {
		g.Go(func() error {
			results[i] = s.processRecord(gctx, clientID, i, raw, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome := &BatchOutcome{
		RequestID: requestcontext.RequestID(ctx),
		ClientID:  clientID,
		Received:  len(records),
		Results:   results,
	}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeCreated:
			outcome.Created++
		case OutcomeUpdated:
			outcome.Updated++
		case OutcomeRejected:
			outcome.Rejected++
		}
		if r.Degraded {
			outcome.Degraded++
		}
	}

	s.metrics.ObserveBatch(len(records), time.Since(started).Seconds())
	span.SetAttributes(
		attribute.Int("batch.created", outcome.Created),
		attribute.Int("batch.updated", outcome.Updated),
		attribute.Int("batch.rejected", outcome.Rejected),
	)
	s.log(ctx, "batch ingested",
		slog.Int64("client_id", clientID),
		slog.Int("received", outcome.Received),
		slog.Int("created", outcome.Created),
		slog.Int("updated", outcome.Updated),
		slog.Int("rejected", outcome.Rejected),
		slog.Int("degraded", outcome.Degraded),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishBatchOutcome(ctx, *outcome); err != nil {
			s.log(ctx, "batch outcome publish failed", slog.String("error", err.Error()))
		}
	}
	return outcome, nil
}

func (s *Service) processRecord(ctx context.Context, clientID int64, index int, raw models.RawRecord, now time.Time) RecordResult {
	ctx, cancel := context.WithTimeout(ctx, s.recordTimeout)
	defer cancel()

	// The path-scoped client always wins over whatever the record claims.
	raw.ClientID = clientID

	snap, err := s.normalizer.Normalize(ctx, raw, now)
	if err != nil {
		return s.reject(ctx, index, raw, err)
	}

	id, created, err := s.snapshots.Upsert(ctx, snap)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			err = domainerrors.Wrap(err, domainerrors.CodeConflict,
				"total responses may not decrease over time for a vacancy")
		}
		return s.reject(ctx, index, raw, err)
	}

	outcome := OutcomeUpdated
	if created {
		outcome = OutcomeCreated
	}
	s.metrics.ObserveRecord(string(outcome))
	if !snap.GeoResolved {
		s.metrics.ObserveDegraded()
	}
	return RecordResult{
		Index:      index,
		Outcome:    outcome,
		SnapshotID: id,
		Degraded:   !snap.GeoResolved,
	}
}

func (s *Service) reject(ctx context.Context, index int, raw models.RawRecord, err error) RecordResult {
	code := domainerrors.CodeOf(err)
	s.metrics.ObserveRecord(string(OutcomeRejected))
	s.log(ctx, "record rejected",
		slog.Int("index", index),
		slog.Int64("vacancy_id", raw.VacancyID),
		slog.String("code", string(code)),
		slog.String("error", err.Error()),
	)
	return RecordResult{
		Index:   index,
		Outcome: OutcomeRejected,
		Code:    code,
		Error:   err.Error(),
	}
}

func (s *Service) log(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}
