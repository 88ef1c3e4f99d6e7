//go:build integration

package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	refmodels "vacmetrics/internal/reference/models"
	refstore "vacmetrics/internal/reference/store"
	"vacmetrics/internal/tenant/models"
	"vacmetrics/pkg/platform/sentinel"
	"vacmetrics/pkg/testutil/containers"
)

type PostgresClientSuite struct {
	suite.Suite
	pg        *containers.PostgresContainer
	store     *PostgresStore
	countryID int64
}

func TestPostgresClientSuite(t *testing.T) {
	suite.Run(t, new(PostgresClientSuite))
}

func (s *PostgresClientSuite) SetupSuite() {
	s.pg = containers.SharedPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresClientSuite) SetupTest() {
	ctx := context.Background()
	err := s.pg.TruncateTables(ctx, "profiles", "clients", "cities", "regions", "countries")
	s.Require().NoError(err)

	country := &refmodels.Country{Name: "Russia", ISO2Code: "RU", ISO3Code: "RUS", LanguageCode: "ru", IsActive: true}
	s.Require().NoError(refstore.NewPostgres(s.pg.DB).CreateCountry(ctx, country))
	s.countryID = country.ID
}

func (s *PostgresClientSuite) newClient(name, slug string) *models.Client {
	client, err := models.NewClient(name, slug, s.countryID, 3, 1, time.Now())
	s.Require().NoError(err)
	return client
}

func (s *PostgresClientSuite) TestCreate() {
	ctx := context.Background()

	s.Run("create assigns id and timestamps", func() {
		client := s.newClient("Acme Delivery", "acme-delivery")
		s.Require().NoError(s.store.Create(ctx, client))
		s.NotZero(client.ID)
		s.False(client.CreatedAt.IsZero())
	})

	s.Run("slug must be unique", func() {
		s.Require().NoError(s.store.Create(ctx, s.newClient("First", "shared-slug")))

		err := s.store.Create(ctx, s.newClient("Second", "shared-slug"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *PostgresClientSuite) TestLookups() {
	ctx := context.Background()
	client := s.newClient("Acme Delivery", "acme-delivery")
	s.Require().NoError(s.store.Create(ctx, client))

	s.Run("by id", func() {
		got, err := s.store.FindByID(ctx, client.ID)
		s.Require().NoError(err)
		s.Equal(client.UUID, got.UUID)
		s.Equal(models.StatusActive, got.Status)
	})

	s.Run("by slug", func() {
		got, err := s.store.FindBySlug(ctx, "acme-delivery")
		s.Require().NoError(err)
		s.Equal(client.ID, got.ID)
	})

	s.Run("unknown id reports not found", func() {
		_, err := s.store.FindByID(ctx, 9999)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresClientSuite) TestUpdate() {
	ctx := context.Background()
	client := s.newClient("Acme Delivery", "acme-delivery")
	s.Require().NoError(s.store.Create(ctx, client))

	s.Run("status transition persists", func() {
		s.Require().NoError(client.Suspend(time.Now()))
		s.Require().NoError(s.store.Update(ctx, client))

		got, err := s.store.FindByID(ctx, client.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSuspended, got.Status)
	})

	s.Run("missing row reports not found", func() {
		ghost := s.newClient("Ghost", "ghost")
		ghost.ID = 9999
		s.ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
	})
}
