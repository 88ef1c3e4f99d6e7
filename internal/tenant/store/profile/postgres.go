package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"vacmetrics/internal/tenant/models"
	"vacmetrics/pkg/platform/sentinel"
)

// PostgresStore persists profiles in PostgreSQL. Every query carries
// client_id; there is deliberately no unscoped lookup.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, profile *models.Profile) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (client_id, uuid, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, profile.ClientID, profile.UUID, profile.Name, profile.IsActive).
		Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, profile *models.Profile) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = $3, is_active = $4, updated_at = NOW()
		WHERE client_id = $1 AND id = $2
	`, profile.ClientID, profile.ID, profile.Name, profile.IsActive)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectProfile = `
	SELECT id, client_id, uuid, name, is_active, created_at, updated_at
	FROM profiles`

func (s *PostgresStore) FindByClientAndID(ctx context.Context, clientID, id int64) (*models.Profile, error) {
	return scanOne(s.db.QueryRowContext(ctx, selectProfile+` WHERE client_id = $1 AND id = $2`, clientID, id))
}

func (s *PostgresStore) FindByClientAndName(ctx context.Context, clientID int64, name string) (*models.Profile, error) {
	return scanOne(s.db.QueryRowContext(ctx,
		selectProfile+` WHERE client_id = $1 AND LOWER(name) = LOWER($2) ORDER BY id LIMIT 1`, clientID, name))
}

func (s *PostgresStore) ListByClient(ctx context.Context, clientID int64) ([]*models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, selectProfile+` WHERE client_id = $1 ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.ClientID, &p.UUID, &p.Name, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func scanOne(row *sql.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.ClientID, &p.UUID, &p.Name, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}
