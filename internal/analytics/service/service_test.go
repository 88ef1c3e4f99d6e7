package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vacmetrics/internal/analytics/models"
	analyticsstore "vacmetrics/internal/analytics/store"
	snapstore "vacmetrics/internal/snapshot/store"
	tenantservice "vacmetrics/internal/tenant/service"
	clientstore "vacmetrics/internal/tenant/store/client"
	profilestore "vacmetrics/internal/tenant/store/profile"
	dErrors "vacmetrics/pkg/domain-errors"
)

type AnalyticsServiceSuite struct {
	suite.Suite
	service  *Service
	clientID int64
}

func TestAnalyticsServiceSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceSuite))
}

func (s *AnalyticsServiceSuite) SetupTest() {
	ctx := context.Background()

	tenants := tenantservice.New(clientstore.NewInMemory(), profilestore.NewInMemory())
	client, err := tenants.CreateClient(ctx, "Acme", "acme", 1, 0, 1)
	s.Require().NoError(err)
	s.clientID = client.ID

	s.service = New(analyticsstore.NewMemory(snapstore.NewInMemory()), tenants)
}

func (s *AnalyticsServiceSuite) request() models.Request {
	return models.Request{
		ClientID: s.clientID,
		From:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Bucket:   models.BucketDay,
	}
}

func (s *AnalyticsServiceSuite) TestValidationFailsFast() {
	ctx := context.Background()

	s.Run("unknown bucket", func() {
		req := s.request()
		req.Bucket = "fortnight"
		_, err := s.service.Query(ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown group dimension", func() {
		req := s.request()
		req.GroupBy = []models.Dimension{"planet"}
		_, err := s.service.Query(ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("duplicate group dimension", func() {
		req := s.request()
		req.GroupBy = []models.Dimension{models.DimCity, models.DimCity}
		_, err := s.service.Query(ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("inverted range", func() {
		req := s.request()
		req.From, req.To = req.To, req.From
		_, err := s.service.Query(ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("negative publication age", func() {
		req := s.request()
		req.MaxPublicationAgeDays = -1
		_, err := s.service.Query(ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown client is a reference failure", func() {
		req := s.request()
		req.ClientID = 9999
		_, err := s.service.Query(ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeReference))
	})
}

func (s *AnalyticsServiceSuite) TestDefaults() {
	ctx := context.Background()

	s.Run("zero range defaults to the lookback window", func() {
		req := models.Request{ClientID: s.clientID}
		rows, err := s.service.Query(ctx, req)
		s.NoError(err)
		s.Empty(rows)
	})

	s.Run("empty result is a normal answer", func() {
		rows, err := s.service.Query(ctx, s.request())
		s.NoError(err)
		s.Empty(rows)
	})
}
