package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"vacmetrics/internal/reference/models"
	"vacmetrics/pkg/platform/sentinel"
)

// PostgresStore persists reference rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	fkViolation     = "23503"
	uniqueViolation = "23505"
)

func (s *PostgresStore) CreateCountry(ctx context.Context, country *models.Country) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO countries (name, iso2_code, iso3_code, language_code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, country.Name, country.ISO2Code, country.ISO3Code, country.LanguageCode, country.IsActive).
		Scan(&country.ID, &country.CreatedAt, &country.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create country: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCountryByID(ctx context.Context, id int64) (*models.Country, error) {
	var c models.Country
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, iso2_code, iso3_code, language_code, is_active, created_at, updated_at
		FROM countries WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.ISO2Code, &c.ISO3Code, &c.LanguageCode, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find country: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) FindRegionByName(ctx context.Context, countryID int64, name string) (*models.Region, error) {
	var r models.Region
	err := s.db.QueryRowContext(ctx, `
		SELECT id, country_id, name, code, is_active, created_at, updated_at
		FROM regions
		WHERE country_id = $1 AND LOWER(name) = LOWER($2)
		ORDER BY id
		LIMIT 1
	`, countryID, name).Scan(&r.ID, &r.CountryID, &r.Name, &r.Code, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find region: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) FindRegionByID(ctx context.Context, id int64) (*models.Region, error) {
	var r models.Region
	err := s.db.QueryRowContext(ctx, `
		SELECT id, country_id, name, code, is_active, created_at, updated_at
		FROM regions WHERE id = $1
	`, id).Scan(&r.ID, &r.CountryID, &r.Name, &r.Code, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find region: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) CreateRegion(ctx context.Context, region *models.Region) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO regions (country_id, name, code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, region.CountryID, region.Name, region.Code, region.IsActive).
		Scan(&region.ID, &region.CreatedAt, &region.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("create region: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCityByName(ctx context.Context, countryID int64, name string) (*models.City, error) {
	var c models.City
	err := s.db.QueryRowContext(ctx, `
		SELECT id, country_id, region_id, name, population, is_active, created_at, updated_at
		FROM cities
		WHERE country_id = $1 AND LOWER(name) = LOWER($2)
		ORDER BY id
		LIMIT 1
	`, countryID, name).Scan(&c.ID, &c.CountryID, &c.RegionID, &c.Name, &c.Population, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find city: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateCity(ctx context.Context, city *models.City) error {
	// Region/country agreement is checked here rather than left to the FK so
	// the caller gets ErrInvalidState instead of a raw constraint failure.
	region, err := s.FindRegionByID(ctx, city.RegionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrInvalidState
		}
		return err
	}
	if region.CountryID != city.CountryID {
		return sentinel.ErrInvalidState
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO cities (country_id, region_id, name, population, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, city.CountryID, city.RegionID, city.Name, city.Population, city.IsActive).
		Scan(&city.ID, &city.CreatedAt, &city.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("create city: %w", err)
	}
	return nil
}
