//go:build integration

// Package containers manages shared test containers. Each container type is
// started once per test binary and reused across suites; Ryuk reaps them when
// the run ends.
package containers

import (
	"sync"
	"testing"
)

var (
	pgOnce   sync.Once
	pg       *PostgresContainer
	rdOnce   sync.Once
	rd       *RedisContainer
	rpOnce   sync.Once
	rp       *RedpandaContainer
)

// SharedPostgres returns the singleton Postgres container with the schema
// applied. Callers truncate the tables they touch instead of restarting it.
func SharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	pgOnce.Do(func() {
		pg = NewPostgresContainer(t)
	})
	return pg
}

// SharedRedis returns the singleton Redis container.
func SharedRedis(t *testing.T) *RedisContainer {
	t.Helper()
	rdOnce.Do(func() {
		rd = NewRedisContainer(t)
	})
	return rd
}

// SharedRedpanda returns the singleton Redpanda container.
func SharedRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	rpOnce.Do(func() {
		rp = NewRedpandaContainer(t)
	})
	return rp
}
