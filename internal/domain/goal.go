package domain

import (
	"context"
	"time"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

// Goal statuses.
const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

// Milestone is an intermediate, independently-achievable checkpoint
// within a goal. Achieved never reverts once set; AchievedValue records
// the milestone's target, not the raw progress value at the time.
type Milestone struct {
	ID            string     `json:"id"`
	TargetValue   float64    `json:"targetValue"`
	Achieved      bool       `json:"achieved"`
	AchievedValue float64    `json:"achievedValue"`
	AchievedAt    *time.Time `json:"achievedAt,omitempty"`
}

// Goal is a user-defined sustainability target with ordered milestones.
type Goal struct {
	ID           string      `json:"id"`
	UserID       int64       `json:"userId"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Category     string      `json:"category"`
	TargetValue  float64     `json:"targetValue"`
	TargetUnit   string      `json:"targetUnit"`
	Timeframe    Timeframe   `json:"timeframe"`
	CurrentValue float64     `json:"currentValue"`
	LastUpdated  time.Time   `json:"lastUpdated"`
	Milestones   []Milestone `json:"milestones"`
	Status       GoalStatus  `json:"status"`
	StartAt      time.Time   `json:"startAt"`
	EndAt        time.Time   `json:"endAt"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// ApplyProgress sets the goal's progress to max(0, v) and recomputes
// derived state: the active->completed transition (one-way, fires only
// from active) and the per-milestone achieved flags. A later, smaller v
// lowers CurrentValue but never un-sets completion or milestone flags.
func (g *Goal) ApplyProgress(v float64, now time.Time) {
	if v < 0 {
		v = 0
	}
	g.CurrentValue = v
	g.LastUpdated = now

	if g.Status == GoalActive && g.CurrentValue >= g.TargetValue {
		g.Status = GoalCompleted
	}

	for i := range g.Milestones {
		m := &g.Milestones[i]
		if m.Achieved || g.CurrentValue < m.TargetValue {
			continue
		}
		m.Achieved = true
		m.AchievedValue = m.TargetValue
		at := now
		m.AchievedAt = &at
	}
}

// IsOverdue reports whether the goal's end date has passed while the
// goal is still active. A zero EndAt means no deadline.
func (g *Goal) IsOverdue(now time.Time) bool {
	return !g.EndAt.IsZero() && now.After(g.EndAt) && g.Status == GoalActive
}

// GoalRepository is the port for goal persistence. UpdateGoal replaces
// progress, status and milestone state as one atomic update.
type GoalRepository interface {
	CreateGoal(ctx context.Context, g Goal) error
	GetGoal(ctx context.Context, userID int64, id string) (*Goal, error)
	ListGoals(ctx context.Context, userID int64) ([]Goal, error)
	UpdateGoal(ctx context.Context, g Goal) error
	CountCompletedSince(ctx context.Context, userID int64, since time.Time) (int, error)
}
