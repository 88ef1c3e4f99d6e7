package store

import (
	"context"

	"vacmetrics/internal/reference/models"
)

// Seeder is the subset of store operations needed to bootstrap reference rows.
type Seeder interface {
	CreateCountry(ctx context.Context, country *models.Country) error
	CreateRegion(ctx context.Context, region *models.Region) error
	CreateCity(ctx context.Context, city *models.City) error
}

// SeedDefaults creates a minimal reference graph for dev bootstrap and tests:
// one country with one region and one city. Returns the created rows.
func SeedDefaults(ctx context.Context, s Seeder) (*models.Country, *models.Region, *models.City, error) {
	country := &models.Country{Name: "Russia", ISO2Code: "RU", ISO3Code: "RUS", LanguageCode: "ru", IsActive: true}
	if err := s.CreateCountry(ctx, country); err != nil {
		return nil, nil, nil, err
	}
	region := &models.Region{CountryID: country.ID, Name: "Moscow Oblast", Code: "MOS", IsActive: true}
	if err := s.CreateRegion(ctx, region); err != nil {
		return nil, nil, nil, err
	}
	city := &models.City{CountryID: country.ID, RegionID: region.ID, Name: "Moscow", Population: 13100000, IsActive: true}
	if err := s.CreateCity(ctx, city); err != nil {
		return nil, nil, nil, err
	}
	return country, region, city, nil
}
