package app

import (
	"context"
	"fmt"
	"time"

	"ecotrack/internal/domain"
)

// MetricsService computes the current scalar value of a metric for one
// user over a criteria-scoped time window.
type MetricsService struct {
	users      domain.UserRepository
	activities domain.ActivityRepository
	goals      domain.GoalRepository
}

// NewMetricsService creates a MetricsService backed by the given repositories.
func NewMetricsService(users domain.UserRepository, activities domain.ActivityRepository, goals domain.GoalRepository) *MetricsService {
	return &MetricsService{users: users, activities: activities, goals: goals}
}

// Evaluate returns the metric value named by criteria for the user,
// measured at now. The result is clamped to criteria.Threshold: the
// evaluator never reports progress beyond the threshold, whatever the
// true magnitude of the underlying metric.
func (s *MetricsService) Evaluate(ctx context.Context, userID int64, c domain.Criteria, now time.Time) (float64, error) {
	since := c.Timeframe.WindowStart(now)

	var value float64
	switch c.Metric {
	case domain.MetricCarbonReduction:
		// Lifetime comparison against the stored baseline, regardless of
		// the criteria window.
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return 0, err
		}
		if user == nil {
			return 0, ErrUserNotFound
		}
		reducedKg := user.BaselineKg - user.CurrentKg
		if reducedKg < 0 {
			reducedKg = 0
		}
		value = domain.ConvertCarbon(reducedKg, "kg", c.Unit)

	case domain.MetricActivitiesCount:
		n, err := s.activities.CountActive(ctx, userID, "", since)
		if err != nil {
			return 0, err
		}
		value = float64(n)

	case domain.MetricStreakDays:
		items, err := s.activities.ListActiveSince(ctx, userID, since)
		if err != nil {
			return 0, err
		}
		dates := make([]time.Time, len(items))
		for i, a := range items {
			dates[i] = a.Date
		}
		value = float64(domain.StreakDays(now, dates))

	case domain.MetricGoalsCompleted:
		n, err := s.goals.CountCompletedSince(ctx, userID, since)
		if err != nil {
			return 0, err
		}
		value = float64(n)

	case domain.MetricCommunityPosts, domain.MetricEducationModules:
		// Reserved metric kinds; the backing features do not exist yet.
		value = 0

	default:
		return 0, fmt.Errorf("unknown metric kind %q", c.Metric)
	}

	if value > c.Threshold {
		value = c.Threshold
	}
	return value, nil
}
