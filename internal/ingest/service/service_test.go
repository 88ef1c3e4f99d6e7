package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	refservice "vacmetrics/internal/reference/service"
	refstore "vacmetrics/internal/reference/store"
	"vacmetrics/internal/snapshot/models"
	"vacmetrics/internal/snapshot/normalizer"
	snapstore "vacmetrics/internal/snapshot/store"
	tenantservice "vacmetrics/internal/tenant/service"
	clientstore "vacmetrics/internal/tenant/store/client"
	profilestore "vacmetrics/internal/tenant/store/profile"
	dErrors "vacmetrics/pkg/domain-errors"
)

// capturedPublisher records published outcomes.
type capturedPublisher struct {
	outcomes []BatchOutcome
	err      error
}

func (p *capturedPublisher) PublishBatchOutcome(_ context.Context, outcome BatchOutcome) error {
	if p.err != nil {
		return p.err
	}
	p.outcomes = append(p.outcomes, outcome)
	return nil
}

type IngestServiceSuite struct {
	suite.Suite
	snapshots *snapstore.InMemory
	clientID  int64
}

func TestIngestServiceSuite(t *testing.T) {
	suite.Run(t, new(IngestServiceSuite))
}

func (s *IngestServiceSuite) newService(opts ...Option) *Service {
	ctx := context.Background()

	refs := refstore.NewInMemory()
	_, _, _, err := refstore.SeedDefaults(ctx, refs)
	s.Require().NoError(err)
	registry := refservice.New(refs)

	tenants := tenantservice.New(clientstore.NewInMemory(), profilestore.NewInMemory())
	client, err := tenants.CreateClient(ctx, "Acme", "acme", 1, 180, 1)
	s.Require().NoError(err)
	s.clientID = client.ID
	_, err = tenants.CreateProfile(ctx, client.ID, "Courier")
	s.Require().NoError(err)

	s.snapshots = snapstore.NewInMemory()
	norm := normalizer.New(tenants, registry, 0.13, false)
	return New(norm, s.snapshots, opts...)
}

func (s *IngestServiceSuite) record(vacancyID int64) models.RawRecord {
	return models.RawRecord{
		VacancyID:    vacancyID,
		VacancyTitle: "Courier",
		Date:         "2026-03-10",
		Source:       "hh",
	}
}

func (s *IngestServiceSuite) TestBatchIndependence() {
	svc := s.newService()
	ctx := context.Background()

	bad := s.record(200)
	bad.SalaryFrom = intp(90000)
	bad.SalaryTo = intp(60000)

	unknownProfile := s.record(300)
	unknownProfile.Profile = "no-such-profile"

	outcome, err := svc.IngestBatch(ctx, s.clientID, []models.RawRecord{
		s.record(100), bad, unknownProfile, s.record(400),
	})
	s.Require().NoError(err)

	s.Equal(4, outcome.Received)
	s.Equal(2, outcome.Created)
	s.Equal(2, outcome.Rejected)
	s.Len(outcome.Results, 4)

	s.Run("results keep input order", func() {
		s.Equal(OutcomeCreated, outcome.Results[0].Outcome)
		s.Equal(OutcomeRejected, outcome.Results[1].Outcome)
		s.Equal(dErrors.CodeValidation, outcome.Results[1].Code)
		s.Equal(OutcomeRejected, outcome.Results[2].Outcome)
		s.Equal(dErrors.CodeReference, outcome.Results[2].Code)
		s.Equal(OutcomeCreated, outcome.Results[3].Outcome)
	})

	s.Run("good records landed despite the bad ones", func() {
		_, err := s.snapshots.GetByNaturalKey(ctx, models.NaturalKey{
			ClientID: s.clientID, VacancyID: 400,
			Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		})
		s.NoError(err)
	})
}

func (s *IngestServiceSuite) TestReingestionUpdates() {
	svc := s.newService()
	ctx := context.Background()

	first, err := svc.IngestBatch(ctx, s.clientID, []models.RawRecord{s.record(100)})
	s.Require().NoError(err)
	s.Equal(1, first.Created)

	second, err := svc.IngestBatch(ctx, s.clientID, []models.RawRecord{s.record(100)})
	s.Require().NoError(err)
	s.Equal(0, second.Created)
	s.Equal(1, second.Updated)
	s.Equal(first.Results[0].SnapshotID, second.Results[0].SnapshotID)
}

func (s *IngestServiceSuite) TestMonotonicityConflict() {
	svc := s.newService()
	ctx := context.Background()

	high := s.record(100)
	high.TotalResponses = intp(50)
	_, err := svc.IngestBatch(ctx, s.clientID, []models.RawRecord{high})
	s.Require().NoError(err)

	shrunk := s.record(100)
	shrunk.Date = "2026-03-12"
	shrunk.TotalResponses = intp(40)
	outcome, err := svc.IngestBatch(ctx, s.clientID, []models.RawRecord{shrunk})
	s.Require().NoError(err)
	s.Equal(1, outcome.Rejected)
	s.Equal(dErrors.CodeConflict, outcome.Results[0].Code)
}

func (s *IngestServiceSuite) TestDegradedGeography() {
	svc := s.newService()
	ctx := context.Background()

	degraded := s.record(100)
	degraded.City = "Nowhere City"

	outcome, err := svc.IngestBatch(ctx, s.clientID, []models.RawRecord{degraded})
	s.Require().NoError(err)
	s.Equal(1, outcome.Created)
	s.Equal(1, outcome.Degraded)
	s.True(outcome.Results[0].Degraded)
}

func (s *IngestServiceSuite) TestPathScopeOverridesRecord() {
	svc := s.newService()
	ctx := context.Background()

	foreign := s.record(100)
	foreign.ClientID = 9999

	outcome, err := svc.IngestBatch(ctx, s.clientID, []models.RawRecord{foreign})
	s.Require().NoError(err)
	s.Equal(1, outcome.Created)

	snap, err := s.snapshots.GetByNaturalKey(ctx, models.NaturalKey{
		ClientID: s.clientID, VacancyID: 100,
		Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.Equal(s.clientID, snap.ClientID)
}

func (s *IngestServiceSuite) TestPublisher() {
	s.Run("outcome is published after the batch", func() {
		pub := &capturedPublisher{}
		svc := s.newService(WithPublisher(pub))

		_, err := svc.IngestBatch(context.Background(), s.clientID, []models.RawRecord{s.record(100)})
		s.Require().NoError(err)
		s.Require().Len(pub.outcomes, 1)
		s.Equal(1, pub.outcomes[0].Created)
	})

	s.Run("publish failure does not fail the batch", func() {
		pub := &capturedPublisher{err: context.DeadlineExceeded}
		svc := s.newService(WithPublisher(pub))

		outcome, err := svc.IngestBatch(context.Background(), s.clientID, []models.RawRecord{s.record(100)})
		s.NoError(err)
		s.Equal(1, outcome.Created)
	})
}

func intp(v int) *int { return &v }
