//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"vacmetrics/internal/reference/models"
	"vacmetrics/pkg/platform/sentinel"
	"vacmetrics/pkg/testutil/containers"
)

type PostgresReferenceSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresReferenceSuite(t *testing.T) {
	suite.Run(t, new(PostgresReferenceSuite))
}

func (s *PostgresReferenceSuite) SetupSuite() {
	s.pg = containers.SharedPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresReferenceSuite) SetupTest() {
	err := s.pg.TruncateTables(context.Background(), "cities", "regions", "countries")
	s.Require().NoError(err)
}

func (s *PostgresReferenceSuite) seed() (*models.Country, *models.Region, *models.City) {
	country, region, city, err := SeedDefaults(context.Background(), s.store)
	s.Require().NoError(err)
	return country, region, city
}

func (s *PostgresReferenceSuite) TestLookups() {
	ctx := context.Background()
	country, region, city := s.seed()

	s.Run("region lookup ignores case", func() {
		got, err := s.store.FindRegionByName(ctx, country.ID, "MOSCOW OBLAST")
		s.Require().NoError(err)
		s.Equal(region.ID, got.ID)
	})

	s.Run("city lookup ignores case", func() {
		got, err := s.store.FindCityByName(ctx, country.ID, "moscow")
		s.Require().NoError(err)
		s.Equal(city.ID, got.ID)
	})

	s.Run("lookup scoped to country", func() {
		_, err := s.store.FindCityByName(ctx, country.ID+1, "Moscow")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate names resolve to the lowest id", func() {
		dup := &models.Region{CountryID: country.ID, Name: "Moscow Oblast", IsActive: false}
		s.Require().NoError(s.store.CreateRegion(ctx, dup))

		got, err := s.store.FindRegionByName(ctx, country.ID, "Moscow Oblast")
		s.Require().NoError(err)
		s.Equal(region.ID, got.ID)
	})
}

func (s *PostgresReferenceSuite) TestCreateConstraints() {
	ctx := context.Background()
	country, region, _ := s.seed()

	s.Run("region under missing country fails", func() {
		err := s.store.CreateRegion(ctx, &models.Region{CountryID: 9999, Name: "Ghost"})
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("city must agree with its region's country", func() {
		other := &models.Country{Name: "Kazakhstan"}
		s.Require().NoError(s.store.CreateCountry(ctx, other))

		err := s.store.CreateCity(ctx, &models.City{
			CountryID: other.ID, RegionID: region.ID, Name: "Almaty",
		})
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("duplicate country name is a conflict regardless of case", func() {
		err := s.store.CreateCountry(ctx, &models.Country{Name: "RUSSIA"})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("create returns generated id and timestamps", func() {
		city := &models.City{CountryID: country.ID, RegionID: region.ID, Name: "Khimki"}
		s.Require().NoError(s.store.CreateCity(ctx, city))
		s.NotZero(city.ID)
		s.False(city.CreatedAt.IsZero())
	})
}
