// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ecotrack/internal/domain"
)

// DB implements every domain repository in memory.
type DB struct {
	mu           sync.Mutex
	users        []*domain.User
	sessions     map[string]*domain.Session
	activities   []domain.Activity
	goals        []domain.Goal
	achievements []domain.Achievement

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ActivityRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.AchievementRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// ListIDs returns the IDs of all users in creation order.
func (db *DB) ListIDs(ctx context.Context) ([]int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]int64, len(db.users))
	for i, u := range db.users {
		ids[i] = u.ID
	}
	return ids, nil
}

// SetCarbonTotals replaces the user's baseline and current carbon totals.
func (db *DB) SetCarbonTotals(ctx context.Context, id int64, baselineKg, currentKg float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.BaselineKg = baselineKg
			u.CurrentKg = currentKg
			return nil
		}
	}
	return errors.New("user not found")
}

// AddToCurrentCarbon adjusts the user's current carbon total by deltaKg.
func (db *DB) AddToCurrentCarbon(ctx context.Context, id int64, deltaKg float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.CurrentKg += deltaKg
			return nil
		}
	}
	return errors.New("user not found")
}

// --- ActivityRepository ---

// AddActivity stores a new activity record.
func (db *DB) AddActivity(ctx context.Context, a domain.Activity) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.activities = append(db.activities, a)
	return nil
}

// CountActive counts the user's active activities, optionally filtered
// by category and window start.
func (db *DB) CountActive(ctx context.Context, userID int64, category string, since time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	count := 0
	for i := range db.activities {
		a := &db.activities[i]
		if a.UserID != userID || a.Status != domain.ActivityActive {
			continue
		}
		if category != "" && a.Category != category {
			continue
		}
		if !since.IsZero() && a.Date.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

// ListActiveSince returns the user's active activities with date >= since,
// ordered by date ascending.
func (db *DB) ListActiveSince(ctx context.Context, userID int64, since time.Time) ([]domain.Activity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Activity
	for i := range db.activities {
		a := db.activities[i]
		if a.UserID != userID || a.Status != domain.ActivityActive {
			continue
		}
		if !since.IsZero() && a.Date.Before(since) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// ListRecentActivities returns the most recent activities up to limit.
func (db *DB) ListRecentActivities(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Activity
	for i := range db.activities {
		if db.activities[i].UserID == userID {
			out = append(out, db.activities[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteActivity removes an activity by ID.
func (db *DB) DeleteActivity(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.activities {
		if db.activities[i].UserID == userID && db.activities[i].ID == id {
			db.activities = append(db.activities[:i], db.activities[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- GoalRepository ---

// CreateGoal stores a new goal.
func (db *DB) CreateGoal(ctx context.Context, g domain.Goal) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.goals = append(db.goals, cloneGoal(g))
	return nil
}

// GetGoal returns the user's goal by ID, or nil when absent.
func (db *DB) GetGoal(ctx context.Context, userID int64, id string) (*domain.Goal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.goals {
		if db.goals[i].UserID == userID && db.goals[i].ID == id {
			cp := cloneGoal(db.goals[i])
			return &cp, nil
		}
	}
	return nil, nil
}

// ListGoals returns all goals of the user ordered by creation time.
func (db *DB) ListGoals(ctx context.Context, userID int64) ([]domain.Goal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Goal
	for i := range db.goals {
		if db.goals[i].UserID == userID {
			out = append(out, cloneGoal(db.goals[i]))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateGoal replaces the stored goal state.
func (db *DB) UpdateGoal(ctx context.Context, g domain.Goal) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.goals {
		if db.goals[i].UserID == g.UserID && db.goals[i].ID == g.ID {
			db.goals[i] = cloneGoal(g)
			return nil
		}
	}
	return errors.New("goal not found")
}

// CountCompletedSince counts completed goals last updated at or after since.
func (db *DB) CountCompletedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	count := 0
	for i := range db.goals {
		g := &db.goals[i]
		if g.UserID != userID || g.Status != domain.GoalCompleted {
			continue
		}
		if !since.IsZero() && g.LastUpdated.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

func cloneGoal(g domain.Goal) domain.Goal {
	cp := g
	cp.Milestones = make([]domain.Milestone, len(g.Milestones))
	copy(cp.Milestones, g.Milestones)
	return cp
}

// --- AchievementRepository ---

// CreateAchievement stores a new achievement.
func (db *DB) CreateAchievement(ctx context.Context, a domain.Achievement) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.achievements = append(db.achievements, a)
	return nil
}

// ListEligible returns achievements eligible for evaluation, ordered by
// rarity ascending, then creation time, then ID.
func (db *DB) ListEligible(ctx context.Context, userID int64, now time.Time) ([]domain.Achievement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Achievement
	for i := range db.achievements {
		a := db.achievements[i]
		if a.UserID == userID && a.EligibleAt(now) {
			out = append(out, a)
		}
	}
	sortAchievements(out)
	return out, nil
}

// ListAchievements returns every achievement of the user in the same
// deterministic order as ListEligible.
func (db *DB) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Achievement
	for i := range db.achievements {
		if db.achievements[i].UserID == userID {
			out = append(out, db.achievements[i])
		}
	}
	sortAchievements(out)
	return out, nil
}

// GetAchievement returns the user's achievement by ID, or nil when absent.
func (db *DB) GetAchievement(ctx context.Context, userID int64, id string) (*domain.Achievement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.achievements {
		if db.achievements[i].UserID == userID && db.achievements[i].ID == id {
			cp := db.achievements[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// SaveProgress replaces the stored progress and unlock state of the
// achievement in one step.
func (db *DB) SaveProgress(ctx context.Context, a domain.Achievement) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.achievements {
		if db.achievements[i].UserID == a.UserID && db.achievements[i].ID == a.ID {
			db.achievements[i].Progress = a.Progress
			db.achievements[i].Unlocked = a.Unlocked
			db.achievements[i].UnlockedAt = a.UnlockedAt
			return nil
		}
	}
	return errors.New("achievement not found")
}

// CountUnlocked returns the number of unlocked achievements of the user.
func (db *DB) CountUnlocked(ctx context.Context, userID int64) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	count := 0
	for i := range db.achievements {
		if db.achievements[i].UserID == userID && db.achievements[i].Unlocked {
			count++
		}
	}
	return count, nil
}

func sortAchievements(items []domain.Achievement) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Rarity.Rank() != items[j].Rarity.Rank() {
			return items[i].Rarity.Rank() < items[j].Rarity.Rank()
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
