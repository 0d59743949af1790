package postgres

import (
	"context"
	"database/sql"
	"time"

	"ecotrack/internal/domain"
)

// CreateGoal inserts a goal and its milestones in one transaction.
func (d *DB) CreateGoal(ctx context.Context, g domain.Goal) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, description, category, target_value, target_unit, timeframe, current_value, last_updated, status, start_at, end_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		g.ID, g.UserID, g.Title, g.Description, g.Category, g.TargetValue, g.TargetUnit, string(g.Timeframe),
		g.CurrentValue, g.LastUpdated.UTC(), string(g.Status), g.StartAt.UTC(), g.EndAt.UTC(), g.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}

	for i, m := range g.Milestones {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO goal_milestones (id, goal_id, position, target_value, achieved, achieved_value, achieved_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, g.ID, i, m.TargetValue, m.Achieved, m.AchievedValue, nullableTime(m.AchievedAt),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetGoal returns the user's goal by ID with milestones, or nil when
// absent.
func (d *DB) GetGoal(ctx context.Context, userID int64, id string) (*domain.Goal, error) {
	g, err := d.scanGoalRow(d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, title, description, category, target_value, target_unit, timeframe, current_value, last_updated, status, start_at, end_at, created_at FROM goals WHERE user_id = $1 AND id = $2",
		userID, id,
	))
	if err != nil || g == nil {
		return g, err
	}
	if err := d.loadMilestones(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGoals returns all goals of the user with milestones, ordered by
// creation time.
func (d *DB) ListGoals(ctx context.Context, userID int64) ([]domain.Goal, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, title, description, category, target_value, target_unit, timeframe, current_value, last_updated, status, start_at, end_at, created_at FROM goals WHERE user_id = $1 ORDER BY created_at, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Goal
	for rows.Next() {
		var g domain.Goal
		var timeframe, status string
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Category, &g.TargetValue, &g.TargetUnit, &timeframe, &g.CurrentValue, &g.LastUpdated, &status, &g.StartAt, &g.EndAt, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Timeframe = domain.Timeframe(timeframe)
		g.Status = domain.GoalStatus(status)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := d.loadMilestones(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateGoal replaces the goal's progress, status and milestone state in
// one transaction.
func (d *DB) UpdateGoal(ctx context.Context, g domain.Goal) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE goals SET current_value = $1, last_updated = $2, status = $3 WHERE user_id = $4 AND id = $5",
		g.CurrentValue, g.LastUpdated.UTC(), string(g.Status), g.UserID, g.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	for _, m := range g.Milestones {
		_, err = tx.ExecContext(ctx,
			"UPDATE goal_milestones SET achieved = $1, achieved_value = $2, achieved_at = $3 WHERE goal_id = $4 AND id = $5",
			m.Achieved, m.AchievedValue, nullableTime(m.AchievedAt), g.ID, m.ID,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountCompletedSince counts completed goals last updated at or after
// since.
func (d *DB) CountCompletedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := "SELECT COUNT(*) FROM goals WHERE user_id = $1 AND status = 'completed'"
	args := []any{userID}
	if !since.IsZero() {
		args = append(args, since.UTC())
		query += " AND last_updated >= $2"
	}

	var count int
	err := d.sql.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (d *DB) scanGoalRow(row *sql.Row) (*domain.Goal, error) {
	var g domain.Goal
	var timeframe, status string
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Category, &g.TargetValue, &g.TargetUnit, &timeframe, &g.CurrentValue, &g.LastUpdated, &status, &g.StartAt, &g.EndAt, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.Timeframe = domain.Timeframe(timeframe)
	g.Status = domain.GoalStatus(status)
	return &g, nil
}

func (d *DB) loadMilestones(ctx context.Context, g *domain.Goal) error {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, target_value, achieved, achieved_value, achieved_at FROM goal_milestones WHERE goal_id = $1 ORDER BY position",
		g.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Milestone
		var achievedAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.TargetValue, &m.Achieved, &m.AchievedValue, &achievedAt); err != nil {
			return err
		}
		if achievedAt.Valid {
			at := achievedAt.Time
			m.AchievedAt = &at
		}
		g.Milestones = append(g.Milestones, m)
	}
	return rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
