package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"vacmetrics/internal/tenant/models"
	"vacmetrics/pkg/platform/sentinel"
)

// PostgresStore persists clients in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, client *models.Client) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO clients (uuid, name, slug, is_active, country_id, timezone, plan_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, client.UUID, client.Name, client.Slug, int64(client.Status), client.CountryID,
		client.TimezoneOffset, client.PlanID).
		Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, client *models.Client) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = $2, is_active = $3, timezone = $4, plan_id = $5, updated_at = NOW()
		WHERE id = $1
	`, client.ID, client.Name, int64(client.Status), client.TimezoneOffset, client.PlanID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectClient+` WHERE id = $1`, id))
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Client, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectClient+` WHERE slug = LOWER($1)`, slug))
}

const selectClient = `
	SELECT id, uuid, name, slug, is_active, country_id, timezone, plan_id, created_at, updated_at
	FROM clients`

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Client, error) {
	var c models.Client
	var status int64
	err := row.Scan(&c.ID, &c.UUID, &c.Name, &c.Slug, &status, &c.CountryID,
		&c.TimezoneOffset, &c.PlanID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan client: %w", err)
	}
	c.Status = models.ClientStatus(status)
	return &c, nil
}
