package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vacmetrics/internal/reference/metrics"
	"vacmetrics/internal/reference/models"
	dErrors "vacmetrics/pkg/domain-errors"
	"vacmetrics/pkg/platform/sentinel"
)

// Store is the persistence surface the registry needs.
type Store interface {
	CreateCountry(ctx context.Context, country *models.Country) error
	FindCountryByID(ctx context.Context, id int64) (*models.Country, error)
	FindRegionByName(ctx context.Context, countryID int64, name string) (*models.Region, error)
	FindRegionByID(ctx context.Context, id int64) (*models.Region, error)
	FindCityByName(ctx context.Context, countryID int64, name string) (*models.City, error)
	CreateRegion(ctx context.Context, region *models.Region) error
	CreateCity(ctx context.Context, city *models.City) error
}

// Cache is an optional resolution cache with explicit invalidation.
type Cache interface {
	FindCity(ctx context.Context, countryID int64, regionName, cityName string) (*models.City, *models.Region, error)
	SaveCity(ctx context.Context, countryID int64, regionName, cityName string, city *models.City, region *models.Region) error
	FindRegion(ctx context.Context, countryID int64, regionName string) (*models.Region, error)
	SaveRegion(ctx context.Context, countryID int64, regionName string, region *models.Region) error
	Invalidate(ctx context.Context) error
}

// Registry canonicalizes free-text geography against the reference tables.
//
// Matching is exact-name (case-insensitive). In strict mode unknown names are
// rejected; otherwise a pending row (inactive by default) is created so the
// name resolves deterministically from then on.
type Registry struct {
	store   Store
	cache   Cache
	strict  bool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(r *Registry)

func WithCache(c Cache) Option {
	return func(r *Registry) { r.cache = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithStrictMode disables pending-row creation for unknown names.
func WithStrictMode(strict bool) Option {
	return func(r *Registry) { r.strict = strict }
}

// New constructs a Registry.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveRegion maps a free-text region name to a reference row within a
// country. Returns CodeNotFound when the name is unknown and cannot (strict
// mode) or should not (empty hint) be created.
func (r *Registry) ResolveRegion(ctx context.Context, countryID int64, regionHint string) (*models.Region, error) {
	start := time.Now()
	defer r.observe("region", start)

	regionHint = strings.TrimSpace(regionHint)
	if regionHint == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "region hint is empty")
	}

	if r.cache != nil {
		if region, err := r.cache.FindRegion(ctx, countryID, regionHint); err == nil {
			r.recordHit("region")
			return region, nil
		}
		r.recordMiss("region")
	}

	region, err := r.store.FindRegionByName(ctx, countryID, regionHint)
	if err == nil {
		r.saveRegion(ctx, countryID, regionHint, region)
		return region, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up region")
	}

	if r.strict {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown region %q", regionHint)
	}
	return r.createPendingRegion(ctx, countryID, regionHint)
}

// ResolveCity maps free-text region/city names to reference rows within a
// country. The region returned is the one the resolved city belongs to, which
// may differ from the hint when the city was already known under another
// region.
func (r *Registry) ResolveCity(ctx context.Context, countryID int64, regionHint, cityName string) (*models.City, *models.Region, error) {
	start := time.Now()
	defer r.observe("city", start)

	cityName = strings.TrimSpace(cityName)
	if cityName == "" {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "city name is empty")
	}

	if r.cache != nil {
		if city, region, err := r.cache.FindCity(ctx, countryID, regionHint, cityName); err == nil {
			r.recordHit("city")
			return city, region, nil
		}
		r.recordMiss("city")
	}

	city, err := r.store.FindCityByName(ctx, countryID, cityName)
	if err == nil {
		region, rerr := r.store.FindRegionByID(ctx, city.RegionID)
		if rerr != nil {
			return nil, nil, dErrors.Wrap(rerr, dErrors.CodeInternal, "failed to load city region")
		}
		r.saveCity(ctx, countryID, regionHint, cityName, city, region)
		return city, region, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up city")
	}

	if r.strict {
		return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "unknown city %q", cityName)
	}

	// A pending city needs a region to hang off; without a usable hint the
	// record stays unresolved.
	region, err := r.ResolveRegion(ctx, countryID, regionHint)
	if err != nil {
		return nil, nil, err
	}

	city = &models.City{
		CountryID: countryID,
		RegionID:  region.ID,
		Name:      cityName,
		IsActive:  false,
	}
	if err := r.store.CreateCity(ctx, city); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create pending city")
	}
	r.recordPending("city")
	r.invalidate(ctx)
	if r.logger != nil {
		r.logger.InfoContext(ctx, "created pending city",
			"country_id", countryID, "region_id", region.ID, "name", cityName)
	}
	return city, region, nil
}

// AddCountry registers a canonical country.
func (r *Registry) AddCountry(ctx context.Context, country *models.Country) error {
	country.IsActive = true
	if err := r.store.CreateCountry(ctx, country); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Newf(dErrors.CodeConflict, "country %q already exists", country.Name)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create country")
	}
	r.invalidate(ctx)
	return nil
}

// AddRegion registers a canonical, immediately active region.
func (r *Registry) AddRegion(ctx context.Context, region *models.Region) error {
	region.IsActive = true
	if err := r.store.CreateRegion(ctx, region); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.Newf(dErrors.CodeReference, "unknown country %d", region.CountryID)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Newf(dErrors.CodeConflict, "region %q already exists", region.Name)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create region")
	}
	r.invalidate(ctx)
	return nil
}

// AddCity registers a canonical, immediately active city under an existing
// region of the same country.
func (r *Registry) AddCity(ctx context.Context, city *models.City) error {
	city.IsActive = true
	if err := r.store.CreateCity(ctx, city); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.Newf(dErrors.CodeReference,
				"region %d does not belong to country %d", city.RegionID, city.CountryID)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Newf(dErrors.CodeConflict, "city %q already exists", city.Name)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create city")
	}
	r.invalidate(ctx)
	return nil
}

func (r *Registry) createPendingRegion(ctx context.Context, countryID int64, name string) (*models.Region, error) {
	region := &models.Region{CountryID: countryID, Name: name, IsActive: false}
	if err := r.store.CreateRegion(ctx, region); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown country %d", countryID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create pending region")
	}
	r.recordPending("region")
	r.invalidate(ctx)
	if r.logger != nil {
		r.logger.InfoContext(ctx, "created pending region", "country_id", countryID, "name", name)
	}
	return region, nil
}

func (r *Registry) saveRegion(ctx context.Context, countryID int64, hint string, region *models.Region) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SaveRegion(ctx, countryID, hint, region); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "region cache write failed", "error", err)
	}
}

func (r *Registry) saveCity(ctx context.Context, countryID int64, regionHint, cityName string, city *models.City, region *models.Region) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SaveCity(ctx, countryID, regionHint, cityName, city, region); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "city cache write failed", "error", err)
	}
}

func (r *Registry) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "reference cache invalidation failed", "error", err)
		}
		return
	}
	if r.metrics != nil {
		r.metrics.RecordInvalidation()
	}
}

func (r *Registry) recordHit(entity string) {
	if r.metrics != nil {
		r.metrics.RecordCacheHit(entity)
	}
}

func (r *Registry) recordMiss(entity string) {
	if r.metrics != nil {
		r.metrics.RecordCacheMiss(entity)
	}
}

func (r *Registry) recordPending(entity string) {
	if r.metrics != nil {
		r.metrics.RecordPendingCreated(entity)
	}
}

func (r *Registry) observe(entity string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveResolve(entity, start)
	}
}
