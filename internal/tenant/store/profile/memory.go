package profile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"vacmetrics/internal/tenant/models"
	"vacmetrics/pkg/platform/sentinel"
)

// InMemory is the in-process profile store used by unit tests and dev mode.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[int64]*models.Profile
	nextID   int64
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[int64]*models.Profile), nextID: 1}
}

func (s *InMemory) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.ClientID == profile.ClientID && strings.EqualFold(p.Name, profile.Name) {
			return sentinel.ErrConflict
		}
	}
	if profile.ID == 0 {
		profile.ID = s.nextID
		s.nextID++
	}
	cp := *profile
	s.profiles[profile.ID] = &cp
	return nil
}

func (s *InMemory) Update(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[profile.ID]
	if !ok || existing.ClientID != profile.ClientID {
		return sentinel.ErrNotFound
	}
	cp := *profile
	s.profiles[profile.ID] = &cp
	return nil
}

// FindByClientAndID filters by client_id even though ids are globally unique,
// so a cross-tenant id never resolves.
func (s *InMemory) FindByClientAndID(_ context.Context, clientID, id int64) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok || p.ClientID != clientID {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByClientAndName(_ context.Context, clientID int64, name string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.ClientID == clientID && strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByClient(_ context.Context, clientID int64) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Profile
	for _, p := range s.profiles {
		if p.ClientID == clientID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
