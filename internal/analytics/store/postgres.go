package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vacmetrics/internal/analytics/models"
)

// PostgresStore aggregates in two stages so repeated daily observations of
// one vacancy never inflate its totals: an inner query collapses each vacancy
// to one row per group (max cumulative counter, average daily signal, average
// salary), then the outer query combines vacancies per group.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func bucketExpr(b models.Bucket) string {
	switch b {
	case models.BucketWeek:
		return `to_char(date, 'IYYY-IW')`
	case models.BucketMonth:
		return `to_char(date, 'YYYY-MM')`
	default:
		return `to_char(date, 'YYYY-MM-DD')`
	}
}

func (s *PostgresStore) Aggregate(ctx context.Context, req models.Request) ([]models.Row, error) {
	where := []string{"client_id = $1", "date >= $2", "date <= $3"}
	args := []any{req.ClientID, req.From, req.To}

	for _, filter := range []struct {
		column string
		value  string
	}{
		{"profile", req.Filters.Profile},
		{"city", req.Filters.City},
		{"region", req.Filters.Region},
		{"specialization", req.Filters.Specialization},
		{"source", req.Filters.Source},
	} {
		if filter.value == "" {
			continue
		}
		args = append(args, filter.value)
		where = append(where, fmt.Sprintf("LOWER(%s) = LOWER($%d)", filter.column, len(args)))
	}
	if req.MaxPublicationAgeDays > 0 {
		args = append(args, req.MaxPublicationAgeDays)
		where = append(where,
			fmt.Sprintf("(publication_date IS NULL OR date::date - publication_date::date <= $%d)", len(args)))
	}

	// Dimension names come from a closed enum validated upstream, so they are
	// safe to splice into the statement.
	dims := make([]string, len(req.GroupBy))
	for i, d := range req.GroupBy {
		dims[i] = string(d)
	}
	groupCols := "bucket"
	dimSelect := ""
	if len(dims) > 0 {
		groupCols += ", " + strings.Join(dims, ", ")
		dimSelect = strings.Join(dims, ", ") + ","
	}

	query := fmt.Sprintf(`
		WITH per_vacancy AS (
			SELECT
				%s AS bucket,
				%s
				vacancy_id,
				MAX(total_responses) AS vacancy_total,
				AVG(responses) AS avg_responses,
				AVG(salary_from_recalculated) AS avg_salary_from,
				AVG(salary_to_recalculated) AS avg_salary_to
			FROM vacancy_activity
			WHERE %s
			GROUP BY %s, vacancy_id
		)
		SELECT
			bucket,
			%s
			COUNT(*) AS vacancies,
			COALESCE(SUM(vacancy_total), 0) AS total_responses,
			AVG(avg_responses) AS avg_responses_per_day,
			AVG(avg_salary_from) AS avg_salary_from,
			AVG(avg_salary_to) AS avg_salary_to,
			percentile_cont(0.5) WITHIN GROUP (ORDER BY avg_salary_from) AS median_salary_from
		FROM per_vacancy
		GROUP BY %s
		ORDER BY %s
	`, bucketExpr(req.Bucket), dimSelect, strings.Join(where, " AND "), groupCols,
		dimSelect, groupCols, groupCols)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		var (
			row       models.Row
			dimValues = make([]sql.NullString, len(dims))
			avgResp   sql.NullFloat64
			avgFrom   sql.NullFloat64
			avgTo     sql.NullFloat64
			median    sql.NullFloat64
		)
		dest := []any{&row.Bucket}
		for i := range dimValues {
			dest = append(dest, &dimValues[i])
		}
		dest = append(dest, &row.Vacancies, &row.TotalResponses, &avgResp, &avgFrom, &avgTo, &median)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		if len(dims) > 0 {
			row.Dimensions = make(map[string]string, len(dims))
			for i, d := range dims {
				row.Dimensions[d] = dimValues[i].String
			}
		}
		row.AvgResponsesPerDay = nullable(avgResp)
		row.AvgSalaryFrom = nullable(avgFrom)
		row.AvgSalaryTo = nullable(avgTo)
		row.MedianSalaryFrom = nullable(median)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate rows: %w", err)
	}
	return out, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
