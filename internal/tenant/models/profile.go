package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "vacmetrics/pkg/domain-errors"
)

// Profile is a client-defined analytical grouping (a brand, a department).
// It never outlives or crosses its client boundary.
type Profile struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	UUID      uuid.UUID `json:"uuid"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProfile(clientID int64, name string, now time.Time) (*Profile, error) {
	if clientID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "profile client is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "profile name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "profile name must be 128 characters or less")
	}
	return &Profile{
		ClientID:  clientID,
		UUID:      uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Deactivate soft-disables the profile; snapshots referencing it stay intact.
func (p *Profile) Deactivate(now time.Time) {
	p.IsActive = false
	p.UpdatedAt = now
}
