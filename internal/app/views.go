package app

import (
	"math"
	"time"

	"ecotrack/internal/domain"
)

// progressPercentage returns current/target as a percentage capped at
// 100, and 0 when the target is 0.
func progressPercentage(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	p := current / target * 100
	if p > 100 {
		return 100
	}
	return p
}

// daysRemaining returns the whole days left until end, rounded up, never
// negative.
func daysRemaining(now, end time.Time) int {
	if !end.After(now) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// GoalView is the external-facing read projection of a goal.
type GoalView struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Category           string             `json:"category"`
	TargetValue        float64            `json:"targetValue"`
	TargetUnit         string             `json:"targetUnit"`
	Timeframe          domain.Timeframe   `json:"timeframe"`
	CurrentValue       float64            `json:"currentValue"`
	ProgressPercentage float64            `json:"progressPercentage"`
	Status             domain.GoalStatus  `json:"status"`
	Milestones         []domain.Milestone `json:"milestones"`
	DaysRemaining      int                `json:"daysRemaining"`
	IsOverdue          bool               `json:"isOverdue"`
	StartAt            time.Time          `json:"startAt"`
	EndAt              time.Time          `json:"endAt"`
	LastUpdated        time.Time          `json:"lastUpdated"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// NewGoalView projects a goal into its read view at the given instant.
// Derived fields are recomputed on demand and never persisted.
func NewGoalView(g *domain.Goal, now time.Time) GoalView {
	return GoalView{
		ID:                 g.ID,
		Title:              g.Title,
		Description:        g.Description,
		Category:           g.Category,
		TargetValue:        g.TargetValue,
		TargetUnit:         g.TargetUnit,
		Timeframe:          g.Timeframe,
		CurrentValue:       g.CurrentValue,
		ProgressPercentage: progressPercentage(g.CurrentValue, g.TargetValue),
		Status:             g.Status,
		Milestones:         g.Milestones,
		DaysRemaining:      daysRemaining(now, g.EndAt),
		IsOverdue:          g.IsOverdue(now),
		StartAt:            g.StartAt,
		EndAt:              g.EndAt,
		LastUpdated:        g.LastUpdated,
		CreatedAt:          g.CreatedAt,
	}
}

// AchievementView is the external-facing read projection of an achievement.
type AchievementView struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Type               string          `json:"type"`
	Rarity             domain.Rarity   `json:"rarity"`
	Points             int             `json:"points"`
	Criteria           domain.Criteria `json:"criteria"`
	Current            float64         `json:"current"`
	Required           float64         `json:"required"`
	ProgressPercentage float64         `json:"progressPercentage"`
	Unlocked           bool            `json:"unlocked"`
	UnlockedAt         *time.Time      `json:"unlockedAt,omitempty"`
	Expired            bool            `json:"expired"`
	ExpiresAt          *time.Time      `json:"expiresAt,omitempty"`
	ProgressUpdatedAt  time.Time       `json:"progressUpdatedAt"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// NewAchievementView projects an achievement into its read view at the
// given instant.
func NewAchievementView(a *domain.Achievement, now time.Time) AchievementView {
	return AchievementView{
		ID:                 a.ID,
		Name:               a.Name,
		Description:        a.Description,
		Category:           a.Category,
		Type:               a.Type,
		Rarity:             a.Rarity,
		Points:             a.Points,
		Criteria:           a.Criteria,
		Current:            a.Progress.Current,
		Required:           a.Progress.Required,
		ProgressPercentage: progressPercentage(a.Progress.Current, a.Progress.Required),
		Unlocked:           a.Unlocked,
		UnlockedAt:         a.UnlockedAt,
		Expired:            a.ExpiresAt != nil && !a.ExpiresAt.After(now),
		ExpiresAt:          a.ExpiresAt,
		ProgressUpdatedAt:  a.Progress.UpdatedAt,
		CreatedAt:          a.CreatedAt,
	}
}
