package store

import (
	"context"
	"iter"
	"time"

	"vacmetrics/internal/snapshot/models"
)

// Filters narrow a range scan. Zero values mean "no filter". Text filters
// match case-insensitively against the stored (canonical or raw) values.
type Filters struct {
	Profile        string
	City           string
	Region         string
	Specialization string
	Source         string
}

// Store is the persistence contract for canonical snapshots.
//
// Upsert is transactional per natural key: a conflict on
// (client_id, vacancy_id, date) overwrites the existing row's mutable fields
// instead of creating a duplicate, and concurrent writers of the same key
// serialize on the uniqueness constraint (last writer wins). Upsert also
// guards lifecycle monotonicity: total_responses for a (client, vacancy) pair
// must never decrease as the observation date increases; violating writes
// fail with sentinel.ErrInvalidState.
type Store interface {
	Upsert(ctx context.Context, snap *models.Snapshot) (id int64, created bool, err error)
	GetByNaturalKey(ctx context.Context, key models.NaturalKey) (*models.Snapshot, error)
	// QueryRange returns a finite, restartable sequence over [from, to].
	// Each range over the sequence restarts the underlying scan.
	QueryRange(ctx context.Context, clientID int64, f Filters, from, to time.Time) iter.Seq2[*models.Snapshot, error]
}
