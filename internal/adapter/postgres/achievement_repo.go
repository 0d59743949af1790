package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ecotrack/internal/domain"
)

const achievementColumns = "id, user_id, name, description, category, type, rarity, points, criteria_metric, criteria_threshold, criteria_unit, criteria_timeframe, progress_current, progress_required, progress_updated_at, unlocked, unlocked_at, hidden, active, expires_at, metadata, created_at"

// CreateAchievement inserts a new achievement.
func (d *DB) CreateAchievement(ctx context.Context, a domain.Achievement) error {
	meta, err := marshalMetadata(a.Metadata)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO achievements (`+achievementColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		a.ID, a.UserID, a.Name, a.Description, a.Category, a.Type, string(a.Rarity), a.Points,
		string(a.Criteria.Metric), a.Criteria.Threshold, a.Criteria.Unit, string(a.Criteria.Timeframe),
		a.Progress.Current, a.Progress.Required, a.Progress.UpdatedAt.UTC(),
		a.Unlocked, nullableTime(a.UnlockedAt), a.Hidden, a.Active, nullableTime(a.ExpiresAt),
		meta, a.CreatedAt.UTC(),
	)
	return err
}

// ListEligible returns achievements open for evaluation, ordered by
// rarity ascending, then creation time, then ID.
func (d *DB) ListEligible(ctx context.Context, userID int64, now time.Time) ([]domain.Achievement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+achievementColumns+" FROM achievements WHERE user_id = $1 AND NOT unlocked AND NOT hidden AND active AND (expires_at IS NULL OR expires_at > $2) ORDER BY "+rarityRankSQL+", created_at, id",
		userID, now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAchievements(rows)
}

// ListAchievements returns every achievement of the user in the same
// deterministic order as ListEligible.
func (d *DB) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+achievementColumns+" FROM achievements WHERE user_id = $1 ORDER BY "+rarityRankSQL+", created_at, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAchievements(rows)
}

// GetAchievement returns the user's achievement by ID, or nil when
// absent.
func (d *DB) GetAchievement(ctx context.Context, userID int64, id string) (*domain.Achievement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+achievementColumns+" FROM achievements WHERE user_id = $1 AND id = $2",
		userID, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanAchievements(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// SaveProgress persists the achievement's progress and unlock state as
// one update.
func (d *DB) SaveProgress(ctx context.Context, a domain.Achievement) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE achievements SET progress_current = $1, progress_updated_at = $2, unlocked = $3, unlocked_at = $4 WHERE user_id = $5 AND id = $6",
		a.Progress.Current, a.Progress.UpdatedAt.UTC(), a.Unlocked, nullableTime(a.UnlockedAt), a.UserID, a.ID,
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
	return nil
}

// CountUnlocked returns the number of unlocked achievements of the user.
func (d *DB) CountUnlocked(ctx context.Context, userID int64) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM achievements WHERE user_id = $1 AND unlocked", userID,
	).Scan(&count)
	return count, err
}

func scanAchievements(rows *sql.Rows) ([]domain.Achievement, error) {
	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		var rarity, metric, timeframe string
		var unlockedAt, expiresAt sql.NullTime
		var meta []byte
		err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.Category, &a.Type, &rarity, &a.Points,
			&metric, &a.Criteria.Threshold, &a.Criteria.Unit, &timeframe,
			&a.Progress.Current, &a.Progress.Required, &a.Progress.UpdatedAt,
			&a.Unlocked, &unlockedAt, &a.Hidden, &a.Active, &expiresAt, &meta, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		a.Rarity = domain.Rarity(rarity)
		a.Criteria.Metric = domain.MetricKind(metric)
		a.Criteria.Timeframe = domain.Timeframe(timeframe)
		if unlockedAt.Valid {
			at := unlockedAt.Time
			a.UnlockedAt = &at
		}
		if expiresAt.Valid {
			at := expiresAt.Time
			a.ExpiresAt = &at
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
