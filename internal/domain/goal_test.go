package domain_test

import (
	"testing"
	"time"

	"ecotrack/internal/domain"
)

func TestGoalApplyProgressCompletion(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	g := domain.Goal{TargetValue: 100, Status: domain.GoalActive}

	g.ApplyProgress(100, now)
	if g.Status != domain.GoalCompleted {
		t.Fatalf("status = %s; want completed", g.Status)
	}

	// Completion is one-way: a later decrease keeps the goal completed.
	g.ApplyProgress(50, now.Add(time.Hour))
	if g.Status != domain.GoalCompleted {
		t.Fatalf("status after decrease = %s; want completed", g.Status)
	}
	if g.CurrentValue != 50 {
		t.Errorf("currentValue = %v; want 50", g.CurrentValue)
	}
}

func TestGoalApplyProgressPausedDoesNotComplete(t *testing.T) {
	now := time.Now()
	g := domain.Goal{TargetValue: 10, Status: domain.GoalPaused}
	g.ApplyProgress(20, now)
	if g.Status != domain.GoalPaused {
		t.Errorf("status = %s; paused goals must not complete", g.Status)
	}
}

func TestGoalApplyProgressClampsNegative(t *testing.T) {
	g := domain.Goal{TargetValue: 10, Status: domain.GoalActive}
	g.ApplyProgress(-5, time.Now())
	if g.CurrentValue != 0 {
		t.Errorf("currentValue = %v; want 0", g.CurrentValue)
	}
}

func TestGoalMilestones(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	g := domain.Goal{
		TargetValue: 100,
		Status:      domain.GoalActive,
		Milestones: []domain.Milestone{
			{ID: "m1", TargetValue: 25},
			{ID: "m2", TargetValue: 50},
			{ID: "m3", TargetValue: 75},
		},
	}

	g.ApplyProgress(60, now)
	if !g.Milestones[0].Achieved || !g.Milestones[1].Achieved {
		t.Fatal("milestones below current value should be achieved")
	}
	if g.Milestones[2].Achieved {
		t.Fatal("milestone above current value should not be achieved")
	}
	if g.Status != domain.GoalActive {
		t.Errorf("status = %s; milestones alone must not complete the goal", g.Status)
	}
	// The recorded value is the milestone target, not the raw progress.
	if g.Milestones[1].AchievedValue != 50 {
		t.Errorf("achievedValue = %v; want milestone target 50", g.Milestones[1].AchievedValue)
	}

	firstAt := *g.Milestones[1].AchievedAt

	// Re-applying the same value does not re-stamp achievedAt.
	g.ApplyProgress(60, now.Add(time.Hour))
	if !g.Milestones[1].AchievedAt.Equal(firstAt) {
		t.Errorf("achievedAt re-stamped: %v != %v", g.Milestones[1].AchievedAt, firstAt)
	}

	// Regression does not revert achieved milestones.
	g.ApplyProgress(10, now.Add(2*time.Hour))
	if !g.Milestones[0].Achieved || !g.Milestones[1].Achieved {
		t.Fatal("achieved milestones must never revert")
	}
}

func TestGoalIsOverdue(t *testing.T) {
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status domain.GoalStatus
		now    time.Time
		want   bool
	}{
		{"past end, active", domain.GoalActive, end.Add(time.Hour), true},
		{"before end, active", domain.GoalActive, end.Add(-time.Hour), false},
		{"past end, completed", domain.GoalCompleted, end.Add(time.Hour), false},
		{"past end, cancelled", domain.GoalCancelled, end.Add(time.Hour), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := domain.Goal{EndAt: end, Status: tc.status}
			if got := g.IsOverdue(tc.now); got != tc.want {
				t.Errorf("IsOverdue = %v; want %v", got, tc.want)
			}
		})
	}

	noDeadline := domain.Goal{Status: domain.GoalActive}
	if noDeadline.IsOverdue(end.Add(time.Hour)) {
		t.Error("goal without an end date must not be overdue")
	}
}
