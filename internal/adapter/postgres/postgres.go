package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, baseline_kg DOUBLE PRECISION NOT NULL DEFAULT 0, current_kg DOUBLE PRECISION NOT NULL DEFAULT 0, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		"CREATE TABLE IF NOT EXISTS activities (id TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, category TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', carbon_amount DOUBLE PRECISION NOT NULL, carbon_unit TEXT NOT NULL CHECK(carbon_unit IN ('kg','ton')), status TEXT NOT NULL, date TIMESTAMPTZ NOT NULL, metadata JSONB, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_activities_user_date ON activities(user_id, date);",
		"CREATE TABLE IF NOT EXISTS goals (id TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, title TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', category TEXT NOT NULL DEFAULT '', target_value DOUBLE PRECISION NOT NULL, target_unit TEXT NOT NULL DEFAULT '', timeframe TEXT NOT NULL, current_value DOUBLE PRECISION NOT NULL DEFAULT 0, last_updated TIMESTAMPTZ NOT NULL, status TEXT NOT NULL, start_at TIMESTAMPTZ NOT NULL, end_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_goals_user_id ON goals(user_id);",
		"CREATE TABLE IF NOT EXISTS goal_milestones (id TEXT PRIMARY KEY, goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE, position INT NOT NULL, target_value DOUBLE PRECISION NOT NULL, achieved BOOLEAN NOT NULL DEFAULT FALSE, achieved_value DOUBLE PRECISION NOT NULL DEFAULT 0, achieved_at TIMESTAMPTZ);",
		"CREATE INDEX IF NOT EXISTS idx_goal_milestones_goal_id ON goal_milestones(goal_id);",
		"CREATE TABLE IF NOT EXISTS achievements (id TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', category TEXT NOT NULL DEFAULT '', type TEXT NOT NULL DEFAULT '', rarity TEXT NOT NULL, points INT NOT NULL DEFAULT 0, criteria_metric TEXT NOT NULL, criteria_threshold DOUBLE PRECISION NOT NULL, criteria_unit TEXT NOT NULL DEFAULT '', criteria_timeframe TEXT NOT NULL, progress_current DOUBLE PRECISION NOT NULL DEFAULT 0, progress_required DOUBLE PRECISION NOT NULL, progress_updated_at TIMESTAMPTZ NOT NULL, unlocked BOOLEAN NOT NULL DEFAULT FALSE, unlocked_at TIMESTAMPTZ, hidden BOOLEAN NOT NULL DEFAULT FALSE, active BOOLEAN NOT NULL DEFAULT TRUE, expires_at TIMESTAMPTZ, metadata JSONB, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_achievements_user_id ON achievements(user_id);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rarityRankSQL orders achievement rows common-first, matching
// domain.Rarity.Rank.
const rarityRankSQL = "CASE rarity WHEN 'common' THEN 0 WHEN 'uncommon' THEN 1 WHEN 'rare' THEN 2 WHEN 'epic' THEN 3 WHEN 'legendary' THEN 4 ELSE 5 END"
