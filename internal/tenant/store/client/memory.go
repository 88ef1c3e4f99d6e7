package client

import (
	"context"
	"strings"
	"sync"

	"vacmetrics/internal/tenant/models"
	"vacmetrics/pkg/platform/sentinel"
)

// InMemory is the in-process client store used by unit tests and dev mode.
type InMemory struct {
	mu      sync.RWMutex
	clients map[int64]*models.Client
	slugs   map[string]int64
	nextID  int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		clients: make(map[int64]*models.Client),
		slugs:   make(map[string]int64),
		nextID:  1,
	}
}

func (s *InMemory) Create(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slug := strings.ToLower(client.Slug)
	if _, taken := s.slugs[slug]; taken {
		return sentinel.ErrConflict
	}
	if client.ID == 0 {
		client.ID = s.nextID
		s.nextID++
	}
	cp := *client
	s.clients[client.ID] = &cp
	s.slugs[slug] = client.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *client
	s.clients[client.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.slugs[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.clients[id]
	return &cp, nil
}
