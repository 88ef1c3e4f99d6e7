// Package cache provides a versioned Redis cache for geography resolutions.
//
// Keys embed a version counter; Invalidate bumps the counter so every entry
// written under the previous version becomes unreachable at once. Reference
// writes are rare, so wholesale invalidation is cheaper than tracking which
// names a new row might match.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vacmetrics/internal/reference/models"
	"vacmetrics/pkg/platform/sentinel"
)

const versionKey = "ref:version"

// ResolutionCache caches city/region resolutions in Redis.
type ResolutionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *ResolutionCache {
	return &ResolutionCache{rdb: rdb, ttl: ttl}
}

type cachedCity struct {
	City   models.City   `json:"city"`
	Region models.Region `json:"region"`
}

func (c *ResolutionCache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *ResolutionCache) cityKey(version, countryID int64, regionName, cityName string) string {
	return fmt.Sprintf("ref:v%d:city:%d:%s:%s", version, countryID,
		strings.ToLower(regionName), strings.ToLower(cityName))
}

func (c *ResolutionCache) regionKey(version, countryID int64, regionName string) string {
	return fmt.Sprintf("ref:v%d:region:%d:%s", version, countryID, strings.ToLower(regionName))
}

// FindCity retrieves a cached city resolution.
func (c *ResolutionCache) FindCity(ctx context.Context, countryID int64, regionName, cityName string) (*models.City, *models.Region, error) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cache version: %w", err)
	}
	raw, err := c.rdb.Get(ctx, c.cityKey(v, countryID, regionName, cityName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cache get city: %w", err)
	}
	var entry cachedCity
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, nil, sentinel.ErrNotFound
	}
	return &entry.City, &entry.Region, nil
}

// SaveCity stores a city resolution under the current cache version.
func (c *ResolutionCache) SaveCity(ctx context.Context, countryID int64, regionName, cityName string, city *models.City, region *models.Region) error {
	v, err := c.version(ctx)
	if err != nil {
		return fmt.Errorf("cache version: %w", err)
	}
	raw, err := json.Marshal(cachedCity{City: *city, Region: *region})
	if err != nil {
		return fmt.Errorf("cache marshal city: %w", err)
	}
	return c.rdb.Set(ctx, c.cityKey(v, countryID, regionName, cityName), raw, c.ttl).Err()
}

// FindRegion retrieves a cached region resolution.
func (c *ResolutionCache) FindRegion(ctx context.Context, countryID int64, regionName string) (*models.Region, error) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache version: %w", err)
	}
	raw, err := c.rdb.Get(ctx, c.regionKey(v, countryID, regionName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get region: %w", err)
	}
	var region models.Region
	if err := json.Unmarshal(raw, &region); err != nil {
		return nil, sentinel.ErrNotFound
	}
	return &region, nil
}

// SaveRegion stores a region resolution under the current cache version.
func (c *ResolutionCache) SaveRegion(ctx context.Context, countryID int64, regionName string, region *models.Region) error {
	v, err := c.version(ctx)
	if err != nil {
		return fmt.Errorf("cache version: %w", err)
	}
	raw, err := json.Marshal(region)
	if err != nil {
		return fmt.Errorf("cache marshal region: %w", err)
	}
	return c.rdb.Set(ctx, c.regionKey(v, countryID, regionName), raw, c.ttl).Err()
}

// Invalidate bumps the cache version, orphaning all existing entries. Called
// after any reference-table write.
func (c *ResolutionCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, versionKey).Err()
}
