package store

import (
	"context"
	"strings"
	"sync"

	"vacmetrics/internal/reference/models"
	"vacmetrics/pkg/platform/sentinel"
)

// InMemory keeps reference rows in process memory. Used by unit tests and the
// memory-backed dev mode.
type InMemory struct {
	mu        sync.RWMutex
	countries map[int64]*models.Country
	regions   map[int64]*models.Region
	cities    map[int64]*models.City
	nextID    int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		countries: make(map[int64]*models.Country),
		regions:   make(map[int64]*models.Region),
		cities:    make(map[int64]*models.City),
		nextID:    1,
	}
}

func (s *InMemory) allocate() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *InMemory) CreateCountry(_ context.Context, country *models.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Mirrors the LOWER(name) unique index on countries.
	for _, c := range s.countries {
		if strings.EqualFold(c.Name, country.Name) {
			return sentinel.ErrConflict
		}
	}
	if country.ID == 0 {
		country.ID = s.allocate()
	}
	cp := *country
	s.countries[country.ID] = &cp
	return nil
}

func (s *InMemory) FindCountryByID(_ context.Context, id int64) (*models.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.countries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) FindRegionByName(_ context.Context, countryID int64, name string) (*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.regions {
		if r.CountryID == countryID && strings.EqualFold(r.Name, name) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindRegionByID(_ context.Context, id int64) (*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) CreateRegion(_ context.Context, region *models.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.countries[region.CountryID]; !ok {
		return sentinel.ErrInvalidState
	}
	if region.ID == 0 {
		region.ID = s.allocate()
	}
	cp := *region
	s.regions[region.ID] = &cp
	return nil
}

func (s *InMemory) FindCityByName(_ context.Context, countryID int64, name string) (*models.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cities {
		if c.CountryID == countryID && strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) CreateCity(_ context.Context, city *models.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	region, ok := s.regions[city.RegionID]
	if !ok || region.CountryID != city.CountryID {
		// Region must exist and live in the same country as the city.
		return sentinel.ErrInvalidState
	}
	if city.ID == 0 {
		city.ID = s.allocate()
	}
	cp := *city
	s.cities[city.ID] = &cp
	return nil
}
