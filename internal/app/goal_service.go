package app

import (
	"context"
	"errors"
	"math"
	"time"

	"ecotrack/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrGoalNotFound indicates that the goal does not exist or does not
	// belong to the requesting user.
	ErrGoalNotFound = errors.New("goal not found")
	// ErrInvalidValue indicates malformed numeric input; the entity is
	// left untouched.
	ErrInvalidValue = errors.New("value must be a finite number")
)

// GoalService owns goal records and applies externally-reported progress.
type GoalService struct {
	goals domain.GoalRepository
}

// NewGoalService creates a GoalService backed by the given repository.
func NewGoalService(goals domain.GoalRepository) *GoalService {
	return &GoalService{goals: goals}
}

// CreateGoalInput is the caller-supplied description of a new goal.
type CreateGoalInput struct {
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	TargetValue      float64          `json:"targetValue"`
	TargetUnit       string           `json:"targetUnit"`
	Timeframe        domain.Timeframe `json:"timeframe"`
	EndAt            time.Time        `json:"endAt"`
	MilestoneTargets []float64        `json:"milestoneTargets"`
}

// Create validates and stores a new active goal with its milestones.
func (s *GoalService) Create(ctx context.Context, userID int64, in CreateGoalInput, now time.Time) (*GoalView, error) {
	if in.Title == "" {
		return nil, errors.New("title is required")
	}
	if in.TargetValue <= 0 || math.IsNaN(in.TargetValue) || math.IsInf(in.TargetValue, 0) {
		return nil, errors.New("targetValue must be > 0")
	}
	if !in.Timeframe.Valid() {
		return nil, errors.New("unknown timeframe")
	}

	g := domain.Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		TargetValue: in.TargetValue,
		TargetUnit:  in.TargetUnit,
		Timeframe:   in.Timeframe,
		Status:      domain.GoalActive,
		StartAt:     now,
		EndAt:       in.EndAt,
		LastUpdated: now,
		CreatedAt:   now,
	}
	for _, target := range in.MilestoneTargets {
		g.Milestones = append(g.Milestones, domain.Milestone{
			ID:          uuid.NewString(),
			TargetValue: target,
		})
	}

	if err := s.goals.CreateGoal(ctx, g); err != nil {
		return nil, err
	}
	view := NewGoalView(&g, now)
	return &view, nil
}

// UpdateProgress applies a caller-reported progress value to the goal
// and recomputes completion and milestone state. Input is rejected
// before mutation when it is not a finite number; the stored progress is
// clamped to >= 0. The goal is persisted as one atomic update.
func (s *GoalService) UpdateProgress(ctx context.Context, userID int64, goalID string, newValue float64, now time.Time) (*GoalView, error) {
	if math.IsNaN(newValue) || math.IsInf(newValue, 0) {
		return nil, ErrInvalidValue
	}

	g, err := s.goals.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGoalNotFound
	}

	g.ApplyProgress(newValue, now)
	if err := s.goals.UpdateGoal(ctx, *g); err != nil {
		return nil, err
	}
	view := NewGoalView(g, now)
	return &view, nil
}

// List returns all of the user's goals as views.
func (s *GoalService) List(ctx context.Context, userID int64, now time.Time) ([]GoalView, error) {
	items, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]GoalView, len(items))
	for i := range items {
		views[i] = NewGoalView(&items[i], now)
	}
	return views, nil
}

// GoalStats is the aggregate read view over a user's goals.
type GoalStats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	OverdueCount    int     `json:"overdueCount"`
	AverageProgress float64 `json:"averageProgress"`
}

// StatsOverview computes goal counts and the mean progress percentage.
func (s *GoalService) StatsOverview(ctx context.Context, userID int64, now time.Time) (*GoalStats, error) {
	items, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &GoalStats{Total: len(items)}
	var percentSum float64
	for i := range items {
		g := &items[i]
		switch g.Status {
		case domain.GoalActive:
			stats.Active++
		case domain.GoalCompleted:
			stats.Completed++
		}
		if g.IsOverdue(now) {
			stats.OverdueCount++
		}
		percentSum += progressPercentage(g.CurrentValue, g.TargetValue)
	}
	if stats.Total > 0 {
		stats.AverageProgress = percentSum / float64(stats.Total)
	}
	return stats, nil
}
