package app

import (
	"context"
	"errors"
	"log"
	"time"

	"ecotrack/internal/domain"
)

// ErrAchievementNotFound indicates that the achievement does not exist
// or does not belong to the requesting user.
var ErrAchievementNotFound = errors.New("achievement not found")

// AchievementService owns achievement evaluation and unlocking.
type AchievementService struct {
	achievements domain.AchievementRepository
	metrics      *MetricsService
}

// NewAchievementService creates an AchievementService backed by the
// given repository and metric evaluator.
func NewAchievementService(achievements domain.AchievementRepository, metrics *MetricsService) *AchievementService {
	return &AchievementService{achievements: achievements, metrics: metrics}
}

// CheckFailure records a single achievement whose evaluation or persist
// failed during a Check batch.
type CheckFailure struct {
	AchievementID string `json:"achievementId"`
	Error         string `json:"error"`
}

// CheckResult is the outcome of one Check invocation.
type CheckResult struct {
	NewlyUnlocked []AchievementView `json:"newlyUnlocked"`
	Failed        []CheckFailure    `json:"failed"`
	TotalUnlocked int               `json:"totalUnlocked"`
}

// Check evaluates every eligible achievement for the user against its
// criteria, persists changed progress, and reports the achievements that
// unlocked during this call. Eligible achievements are processed in
// rarity order (common first), then creation order, so repeated calls
// over unchanged data evaluate and return them deterministically.
//
// A failure on one achievement does not abort the batch: the item is
// skipped, recorded in Failed, and evaluation continues with its
// siblings.
func (s *AchievementService) Check(ctx context.Context, userID int64, now time.Time) (*CheckResult, error) {
	eligible, err := s.achievements.ListEligible(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{NewlyUnlocked: []AchievementView{}, Failed: []CheckFailure{}}

	for i := range eligible {
		a := eligible[i]

		progress, err := s.metrics.Evaluate(ctx, userID, a.Criteria, now)
		if err != nil {
			log.Printf("achievement check: evaluate %s for user %d: %v", a.ID, userID, err)
			result.Failed = append(result.Failed, CheckFailure{AchievementID: a.ID, Error: err.Error()})
			continue
		}

		if progress == a.Progress.Current {
			continue
		}

		unlocked := a.UpdateProgress(progress, now)
		if err := s.achievements.SaveProgress(ctx, a); err != nil {
			log.Printf("achievement check: save %s for user %d: %v", a.ID, userID, err)
			result.Failed = append(result.Failed, CheckFailure{AchievementID: a.ID, Error: err.Error()})
			continue
		}
		if unlocked {
			result.NewlyUnlocked = append(result.NewlyUnlocked, NewAchievementView(&a, now))
		}
	}

	total, err := s.achievements.CountUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.TotalUnlocked = total
	return result, nil
}

// ForceUnlock unlocks a single achievement directly, setting its
// progress to the required value. Idempotent.
func (s *AchievementService) ForceUnlock(ctx context.Context, userID int64, id string, now time.Time) (*AchievementView, error) {
	a, err := s.achievements.GetAchievement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAchievementNotFound
	}
	a.Unlock(now)
	if err := s.achievements.SaveProgress(ctx, *a); err != nil {
		return nil, err
	}
	view := NewAchievementView(a, now)
	return &view, nil
}

// List returns every achievement of the user as views, in the
// repository's deterministic order.
func (s *AchievementService) List(ctx context.Context, userID int64, now time.Time) ([]AchievementView, error) {
	items, err := s.achievements.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]AchievementView, len(items))
	for i := range items {
		views[i] = NewAchievementView(&items[i], now)
	}
	return views, nil
}

// AchievementStats is the aggregate read view over a user's achievements.
type AchievementStats struct {
	Total          int            `json:"total"`
	Unlocked       int            `json:"unlocked"`
	Available      int            `json:"available"`
	TotalPoints    int            `json:"totalPoints"`
	CompletionRate float64        `json:"completionRate"`
	ByRarity       map[string]int `json:"byRarity"`
}

// StatsOverview computes unlock totals, points and the rarity histogram
// for the user. Pure read, no mutation.
func (s *AchievementService) StatsOverview(ctx context.Context, userID int64, now time.Time) (*AchievementStats, error) {
	items, err := s.achievements.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &AchievementStats{Total: len(items), ByRarity: make(map[string]int)}
	for i := range items {
		a := &items[i]
		if a.EligibleAt(now) {
			stats.Available++
		}
		if !a.Unlocked {
			continue
		}
		stats.Unlocked++
		stats.ByRarity[string(a.Rarity)]++
		if a.Active {
			stats.TotalPoints += a.Points
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Unlocked) / float64(stats.Total) * 100
	}
	return stats, nil
}
