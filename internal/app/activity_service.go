package app

import (
	"context"
	"errors"
	"math"
	"time"

	"ecotrack/internal/domain"

	"github.com/google/uuid"
)

// ActivityService encapsulates activity-recording use cases. Recording
// and undoing keep the user's lifetime carbon total in step; progress
// checks are driven separately by the caller.
type ActivityService struct {
	activities domain.ActivityRepository
	users      domain.UserRepository
}

// NewActivityService creates an ActivityService backed by the given
// repositories.
func NewActivityService(activities domain.ActivityRepository, users domain.UserRepository) *ActivityService {
	return &ActivityService{activities: activities, users: users}
}

// RecordActivityInput is the caller-supplied description of an activity.
// CarbonAmount carries the footprint impact computed by the caller;
// carbon accounting formulas live outside this service.
type RecordActivityInput struct {
	Category     string            `json:"category"`
	Description  string            `json:"description"`
	CarbonAmount float64           `json:"carbonAmount"`
	CarbonUnit   string            `json:"carbonUnit"`
	Date         time.Time         `json:"date"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Record validates and stores a new active activity, adding its carbon
// amount (normalised to kg) to the user's lifetime current total.
func (s *ActivityService) Record(ctx context.Context, userID int64, in RecordActivityInput, now time.Time) (*domain.Activity, error) {
	if !domain.ValidCategory(in.Category) {
		return nil, errors.New("unknown category")
	}
	if in.CarbonUnit != "kg" && in.CarbonUnit != "ton" {
		return nil, errors.New("carbonUnit must be \"kg\" or \"ton\"")
	}
	if in.CarbonAmount < 0 || math.IsNaN(in.CarbonAmount) || math.IsInf(in.CarbonAmount, 0) {
		return nil, errors.New("carbonAmount must be >= 0")
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}

	a := domain.Activity{
		ID:           uuid.NewString(),
		UserID:       userID,
		Category:     in.Category,
		Description:  in.Description,
		CarbonAmount: in.CarbonAmount,
		CarbonUnit:   in.CarbonUnit,
		Status:       domain.ActivityActive,
		Date:         date,
		Metadata:     in.Metadata,
		CreatedAt:    now,
	}
	if err := s.activities.AddActivity(ctx, a); err != nil {
		return nil, err
	}

	deltaKg := domain.ConvertCarbon(in.CarbonAmount, in.CarbonUnit, "kg")
	if err := s.users.AddToCurrentCarbon(ctx, userID, deltaKg); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListRecent returns the most recent activities up to limit.
func (s *ActivityService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	return s.activities.ListRecentActivities(ctx, userID, limit)
}

// UndoLast deletes the most recent activity and subtracts its carbon
// amount from the user's lifetime total.
func (s *ActivityService) UndoLast(ctx context.Context, userID int64) (bool, error) {
	items, err := s.activities.ListRecentActivities(ctx, userID, 1)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}

	last := items[0]
	deleted, err := s.activities.DeleteActivity(ctx, userID, last.ID)
	if err != nil || !deleted {
		return false, err
	}

	deltaKg := domain.ConvertCarbon(last.CarbonAmount, last.CarbonUnit, "kg")
	if err := s.users.AddToCurrentCarbon(ctx, userID, -deltaKg); err != nil {
		return true, err
	}
	return true, nil
}
