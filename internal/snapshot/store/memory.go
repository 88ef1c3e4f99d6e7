package store

import (
	"context"
	"iter"
	"sort"
	"strings"
	"sync"
	"time"

	"vacmetrics/internal/snapshot/models"
	"vacmetrics/pkg/platform/sentinel"
)

// InMemory keeps snapshots in process memory. Used by unit tests and the
// memory-backed dev mode; mirrors the Postgres store's semantics including
// the monotonicity guard.
type InMemory struct {
	mu     sync.RWMutex
	rows   map[models.NaturalKey]*models.Snapshot
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[models.NaturalKey]*models.Snapshot), nextID: 1}
}

func (s *InMemory) Upsert(_ context.Context, snap *models.Snapshot) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := snap.Key()
	if err := s.checkMonotonicity(snap); err != nil {
		return 0, false, err
	}

	if existing, ok := s.rows[key]; ok {
		cp := *snap
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
		s.rows[key] = &cp
		return cp.ID, false, nil
	}

	cp := *snap
	cp.ID = s.nextID
	s.nextID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.rows[key] = &cp
	return cp.ID, true, nil
}

// checkMonotonicity enforces that total_responses never decreases across
// increasing dates for the same (client, vacancy). The incoming row is
// compared against both its earlier and later neighbors.
func (s *InMemory) checkMonotonicity(snap *models.Snapshot) error {
	if snap.TotalResponses == nil {
		return nil
	}
	for key, row := range s.rows {
		if key.ClientID != snap.ClientID || key.VacancyID != snap.VacancyID || row.TotalResponses == nil {
			continue
		}
		if key.Date.Before(snap.Date) && *row.TotalResponses > *snap.TotalResponses {
			return sentinel.ErrInvalidState
		}
		if key.Date.After(snap.Date) && *row.TotalResponses < *snap.TotalResponses {
			return sentinel.ErrInvalidState
		}
	}
	return nil
}

func (s *InMemory) GetByNaturalKey(_ context.Context, key models.NaturalKey) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[models.NaturalKey{ClientID: key.ClientID, VacancyID: key.VacancyID, Date: models.Day(key.Date)}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *InMemory) QueryRange(_ context.Context, clientID int64, f Filters, from, to time.Time) iter.Seq2[*models.Snapshot, error] {
	return func(yield func(*models.Snapshot, error) bool) {
		s.mu.RLock()
		var matched []*models.Snapshot
		for _, row := range s.rows {
			if row.ClientID != clientID {
				continue
			}
			if row.Date.Before(models.Day(from)) || row.Date.After(models.Day(to)) {
				continue
			}
			if !matches(row, f) {
				continue
			}
			cp := *row
			matched = append(matched, &cp)
		}
		s.mu.RUnlock()

		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.VacancyID < b.VacancyID
		})
		for _, row := range matched {
			if !yield(row, nil) {
				return
			}
		}
	}
}

func matches(row *models.Snapshot, f Filters) bool {
	return matchText(row.Profile, f.Profile) &&
		matchText(row.City, f.City) &&
		matchText(row.Region, f.Region) &&
		matchText(row.Specialization, f.Specialization) &&
		matchText(row.Source, f.Source)
}

func matchText(value, filter string) bool {
	return filter == "" || strings.EqualFold(value, filter)
}
