package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"vacmetrics/internal/snapshot/models"
	"vacmetrics/pkg/platform/sentinel"
)

// PostgresStore persists snapshots in the vacancy_activity table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert writes a snapshot inside one transaction: the monotonicity guard
// reads the neighboring observations of the same (client, vacancy), then the
// row lands via INSERT ... ON CONFLICT on the natural-key unique index.
// Writers carrying a cumulative counter first take a per-vacancy advisory
// lock, so concurrent upserts for different dates of the same vacancy cannot
// interleave between the guard read and the write.
func (s *PostgresStore) Upsert(ctx context.Context, snap *models.Snapshot) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	if snap.TotalResponses != nil {
		_, err = tx.ExecContext(ctx, `
			SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))
		`, snap.ClientID, snap.VacancyID)
		if err != nil {
			return 0, false, fmt.Errorf("lock vacancy: %w", err)
		}

		var maxBefore, minAfter sql.NullInt64
		err = tx.QueryRowContext(ctx, `
			SELECT
				MAX(total_responses) FILTER (WHERE date < $3),
				MIN(total_responses) FILTER (WHERE date > $3)
			FROM vacancy_activity
			WHERE client_id = $1 AND vacancy_id = $2
		`, snap.ClientID, snap.VacancyID, snap.Date).Scan(&maxBefore, &minAfter)
		if err != nil {
			return 0, false, fmt.Errorf("monotonicity check: %w", err)
		}
		total := int64(*snap.TotalResponses)
		if (maxBefore.Valid && maxBefore.Int64 > total) || (minAfter.Valid && minAfter.Int64 < total) {
			return 0, false, sentinel.ErrInvalidState
		}
	}

	var (
		id      int64
		created bool
	)
	err = tx.QueryRowContext(ctx, `
		INSERT INTO vacancy_activity (
			created_at, client_id, source, vacancy_id, publication_date, tariff,
			responses, total_responses, company_name,
			salary_from_recalculated, salary_to_recalculated, tax, salary_indication,
			city, profile, region, employment_type, work_experience, work_schedule,
			date, vacancy_title, salary_from, salary_to, payment_type,
			specialization, skills, metro_stations, vacancy_description, config_id
		) VALUES (
			NOW(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
		ON CONFLICT (client_id, vacancy_id, date) DO UPDATE SET
			source = EXCLUDED.source,
			publication_date = EXCLUDED.publication_date,
			tariff = EXCLUDED.tariff,
			responses = EXCLUDED.responses,
			total_responses = EXCLUDED.total_responses,
			company_name = EXCLUDED.company_name,
			salary_from_recalculated = EXCLUDED.salary_from_recalculated,
			salary_to_recalculated = EXCLUDED.salary_to_recalculated,
			tax = EXCLUDED.tax,
			salary_indication = EXCLUDED.salary_indication,
			city = EXCLUDED.city,
			profile = EXCLUDED.profile,
			region = EXCLUDED.region,
			employment_type = EXCLUDED.employment_type,
			work_experience = EXCLUDED.work_experience,
			work_schedule = EXCLUDED.work_schedule,
			vacancy_title = EXCLUDED.vacancy_title,
			salary_from = EXCLUDED.salary_from,
			salary_to = EXCLUDED.salary_to,
			payment_type = EXCLUDED.payment_type,
			specialization = EXCLUDED.specialization,
			skills = EXCLUDED.skills,
			metro_stations = EXCLUDED.metro_stations,
			vacancy_description = EXCLUDED.vacancy_description,
			config_id = EXCLUDED.config_id
		RETURNING id, (xmax = 0)
	`,
		snap.ClientID, snap.Source, snap.VacancyID, snap.PublicationDate, snap.Tariff,
		snap.Responses, snap.TotalResponses, snap.CompanyName,
		snap.SalaryFromRecalculated, snap.SalaryToRecalculated, snap.Tax, string(snap.SalaryIndication),
		snap.City, snap.Profile, snap.Region, snap.EmploymentType, snap.WorkExperience, snap.WorkSchedule,
		snap.Date, snap.VacancyTitle, snap.SalaryFrom, snap.SalaryTo, snap.PaymentType,
		snap.Specialization, snap.Skills, snap.MetroStations, snap.VacancyDescription, snap.ConfigID,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("upsert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit upsert: %w", err)
	}
	snap.ID = id
	return id, created, nil
}

const selectSnapshot = `
	SELECT id, created_at, client_id, source, vacancy_id, publication_date, tariff,
	       responses, total_responses, company_name,
	       salary_from_recalculated, salary_to_recalculated, tax, salary_indication,
	       city, profile, region, employment_type, work_experience, work_schedule,
	       date, vacancy_title, salary_from, salary_to, payment_type,
	       specialization, skills, metro_stations, vacancy_description, config_id
	FROM vacancy_activity`

func (s *PostgresStore) GetByNaturalKey(ctx context.Context, key models.NaturalKey) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		selectSnapshot+` WHERE client_id = $1 AND vacancy_id = $2 AND date = $3`,
		key.ClientID, key.VacancyID, models.Day(key.Date))
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// QueryRange streams snapshots ordered by date then vacancy. Each range over
// the returned sequence re-runs the indexed scan, which keeps the sequence
// restartable and the reads on the committed state current at restart time.
func (s *PostgresStore) QueryRange(ctx context.Context, clientID int64, f Filters, from, to time.Time) iter.Seq2[*models.Snapshot, error] {
	return func(yield func(*models.Snapshot, error) bool) {
		query := selectSnapshot + ` WHERE client_id = $1 AND date >= $2 AND date <= $3`
		args := []any{clientID, models.Day(from), models.Day(to)}

		for _, filter := range []struct {
			column string
			value  string
		}{
			{"profile", f.Profile},
			{"city", f.City},
			{"region", f.Region},
			{"specialization", f.Specialization},
			{"source", f.Source},
		} {
			if filter.value == "" {
				continue
			}
			args = append(args, filter.value)
			query += fmt.Sprintf(" AND LOWER(%s) = LOWER($%d)", filter.column, len(args))
		}
		query += ` ORDER BY date, vacancy_id`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("query range: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			snap, err := scanSnapshot(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan range row: %w", err))
				return
			}
			if !yield(snap, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("range rows: %w", err))
		}
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*models.Snapshot, error) {
	var (
		snap       models.Snapshot
		pubDate    sql.NullTime
		indication sql.NullString
		tax        sql.NullFloat64
	)
	err := row.Scan(
		&snap.ID, &snap.CreatedAt, &snap.ClientID, &snap.Source, &snap.VacancyID, &pubDate, &snap.Tariff,
		&snap.Responses, &snap.TotalResponses, &snap.CompanyName,
		&snap.SalaryFromRecalculated, &snap.SalaryToRecalculated, &tax, &indication,
		&snap.City, &snap.Profile, &snap.Region, &snap.EmploymentType, &snap.WorkExperience, &snap.WorkSchedule,
		&snap.Date, &snap.VacancyTitle, &snap.SalaryFrom, &snap.SalaryTo, &snap.PaymentType,
		&snap.Specialization, &snap.Skills, &snap.MetroStations, &snap.VacancyDescription, &snap.ConfigID,
	)
	if err != nil {
		return nil, err
	}
	if pubDate.Valid {
		t := pubDate.Time
		snap.PublicationDate = &t
	}
	if tax.Valid {
		snap.Tax = tax.Float64
	}
	snap.SalaryIndication = models.SalaryIndication(indication.String)
	snap.Date = models.Day(snap.Date)
	return &snap, nil
}
