package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ecotrack/internal/domain"
)

// AddActivity inserts a new activity record.
func (d *DB) AddActivity(ctx context.Context, a domain.Activity) error {
	meta, err := marshalMetadata(a.Metadata)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, category, description, carbon_amount, carbon_unit, status, date, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.UserID, a.Category, a.Description, a.CarbonAmount, a.CarbonUnit, string(a.Status), a.Date.UTC(), meta, a.CreatedAt.UTC(),
	)
	return err
}

// CountActive counts the user's active activities, optionally filtered
// by category and window start.
func (d *DB) CountActive(ctx context.Context, userID int64, category string, since time.Time) (int, error) {
	query := "SELECT COUNT(*) FROM activities WHERE user_id = $1 AND status = 'active'"
	args := []any{userID}
	if category != "" {
		args = append(args, category)
		query += " AND category = $2"
	}
	if !since.IsZero() {
		args = append(args, since.UTC())
		if category != "" {
			query += " AND date >= $3"
		} else {
			query += " AND date >= $2"
		}
	}

	var count int
	err := d.sql.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// ListActiveSince returns the user's active activities with date >= since,
// ordered by date ascending.
func (d *DB) ListActiveSince(ctx context.Context, userID int64, since time.Time) ([]domain.Activity, error) {
	query := "SELECT id, user_id, category, description, carbon_amount, carbon_unit, status, date, metadata, created_at FROM activities WHERE user_id = $1 AND status = 'active'"
	args := []any{userID}
	if !since.IsZero() {
		args = append(args, since.UTC())
		query += " AND date >= $2"
	}
	query += " ORDER BY date ASC"

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

// ListRecentActivities returns the most recent activities up to limit.
func (d *DB) ListRecentActivities(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, category, description, carbon_amount, carbon_unit, status, date, metadata, created_at FROM activities WHERE user_id = $1 ORDER BY date DESC LIMIT $2",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

// DeleteActivity removes an activity by ID. Returns false when no row
// matched.
func (d *DB) DeleteActivity(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM activities WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanActivities(rows *sql.Rows) ([]domain.Activity, error) {
	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var status string
		var meta []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.Category, &a.Description, &a.CarbonAmount, &a.CarbonUnit, &status, &a.Date, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Status = domain.ActivityStatus(status)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}
