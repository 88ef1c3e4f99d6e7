package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	dErrors "vacmetrics/pkg/domain-errors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Client is the aggregate root for tenant isolation. Every profile and,
// logically, every stored snapshot scopes to exactly one client.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Slug is non-empty, unique in storage, and kebab-case
//   - Status is one of the enumerated ClientStatus values
//   - CountryID references an existing country
//   - Clients are soft-deactivated, never hard-deleted, so snapshot history
//     keeps resolving
type Client struct {
	ID             int64        `json:"id"`
	UUID           uuid.UUID    `json:"uuid"`
	Name           string       `json:"name"`
	Slug           string       `json:"slug"`
	Status         ClientStatus `json:"status"`
	CountryID      int64        `json:"country_id"`
	TimezoneOffset int          `json:"timezone_offset"`
	PlanID         int64        `json:"plan_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func NewClient(name, slug string, countryID int64, timezoneOffset int, planID int64, now time.Time) (*Client, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "client name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "client name must be 128 characters or less")
	}
	if !slugPattern.MatchString(slug) {
		return nil, dErrors.New(dErrors.CodeValidation, "client slug must be non-empty kebab-case")
	}
	if countryID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "client country is required")
	}
	return &Client{
		UUID:           uuid.New(),
		Name:           name,
		Slug:           slug,
		Status:         StatusActive,
		CountryID:      countryID,
		TimezoneOffset: timezoneOffset,
		PlanID:         planID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (c *Client) IsActive() bool {
	return c.Status == StatusActive
}

// Suspend transitions the client to suspended status.
func (c *Client) Suspend(now time.Time) error {
	if !c.Status.CanTransitionTo(StatusSuspended) {
		return dErrors.Newf(dErrors.CodeValidation, "client cannot move from %s to suspended", c.Status)
	}
	c.Status = StatusSuspended
	c.UpdatedAt = now
	return nil
}

// Reactivate transitions the client back to active status.
func (c *Client) Reactivate(now time.Time) error {
	if !c.Status.CanTransitionTo(StatusActive) {
		return dErrors.Newf(dErrors.CodeValidation, "client cannot move from %s to active", c.Status)
	}
	c.Status = StatusActive
	c.UpdatedAt = now
	return nil
}

// Archive is terminal: the client stops ingesting but its history remains
// queryable.
func (c *Client) Archive(now time.Time) error {
	if !c.Status.CanTransitionTo(StatusArchived) {
		return dErrors.Newf(dErrors.CodeValidation, "client cannot move from %s to archived", c.Status)
	}
	c.Status = StatusArchived
	c.UpdatedAt = now
	return nil
}
