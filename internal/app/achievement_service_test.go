package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecotrack/internal/app"
	"ecotrack/internal/domain"
)

type mockAchievementRepo struct {
	mu    sync.Mutex
	saved []domain.Achievement

	createFn        func(ctx context.Context, a domain.Achievement) error
	listEligibleFn  func(ctx context.Context, userID int64, now time.Time) ([]domain.Achievement, error)
	listFn          func(ctx context.Context, userID int64) ([]domain.Achievement, error)
	getFn           func(ctx context.Context, userID int64, id string) (*domain.Achievement, error)
	saveFn          func(ctx context.Context, a domain.Achievement) error
	countUnlockedFn func(ctx context.Context, userID int64) (int, error)
}

func (m *mockAchievementRepo) CreateAchievement(ctx context.Context, a domain.Achievement) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockAchievementRepo) ListEligible(ctx context.Context, userID int64, now time.Time) ([]domain.Achievement, error) {
	if m.listEligibleFn != nil {
		return m.listEligibleFn(ctx, userID, now)
	}
	return nil, nil
}

func (m *mockAchievementRepo) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAchievementRepo) GetAchievement(ctx context.Context, userID int64, id string) (*domain.Achievement, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockAchievementRepo) SaveProgress(ctx context.Context, a domain.Achievement) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, a)
	}
	m.mu.Lock()
	m.saved = append(m.saved, a)
	m.mu.Unlock()
	return nil
}

func (m *mockAchievementRepo) CountUnlocked(ctx context.Context, userID int64) (int, error) {
	if m.countUnlockedFn != nil {
		return m.countUnlockedFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.saved {
		if a.Unlocked {
			n++
		}
	}
	return n, nil
}

func eligibleAchievement(id string, rarity domain.Rarity, c domain.Criteria, required float64) domain.Achievement {
	return domain.Achievement{
		ID:       id,
		UserID:   1,
		Name:     id,
		Rarity:   rarity,
		Criteria: c,
		Progress: domain.Progress{Required: required},
		Active:   true,
	}
}

func TestCheckUnlocksOnCarbonReduction(t *testing.T) {
	// Baseline 10 tons, current 7 tons: reduction 3 tons, clamped to the
	// threshold of 2, which meets required = 2.
	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, BaselineKg: 10000, CurrentKg: 7000}, nil
		},
	}
	metrics := app.NewMetricsService(users, &mockActivityRepo{}, &mockGoalRepo{})

	criteria := domain.Criteria{
		Metric:    domain.MetricCarbonReduction,
		Threshold: 2,
		Unit:      "ton",
		Timeframe: domain.TimeframeLifetime,
	}
	repo := &mockAchievementRepo{
		listEligibleFn: func(_ context.Context, _ int64, _ time.Time) ([]domain.Achievement, error) {
			a := eligibleAchievement("a1", domain.RarityCommon, criteria, 2)
			return []domain.Achievement{a}, nil
		},
	}
	svc := app.NewAchievementService(repo, metrics)

	result, err := svc.Check(context.Background(), 1, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.NewlyUnlocked) != 1 || result.NewlyUnlocked[0].ID != "a1" {
		t.Fatalf("newlyUnlocked = %+v; want [a1]", result.NewlyUnlocked)
	}
	if result.TotalUnlocked != 1 {
		t.Errorf("totalUnlocked = %d; want 1", result.TotalUnlocked)
	}
	if len(repo.saved) != 1 || !repo.saved[0].Unlocked || repo.saved[0].Progress.Current != 2 {
		t.Fatalf("persisted state wrong: %+v", repo.saved)
	}
}

func TestCheckPersistsProgressWithoutUnlock(t *testing.T) {
	acts := &mockActivityRepo{
		countActiveFn: func(_ context.Context, _ int64, _ string, _ time.Time) (int, error) {
			return 3, nil
		},
	}
	metrics := app.NewMetricsService(&mockUserRepo{}, acts, &mockGoalRepo{})

	criteria := domain.Criteria{Metric: domain.MetricActivitiesCount, Threshold: 10, Timeframe: domain.TimeframeLifetime}
	repo := &mockAchievementRepo{
		listEligibleFn: func(_ context.Context, _ int64, _ time.Time) ([]domain.Achievement, error) {
			return []domain.Achievement{eligibleAchievement("a1", domain.RarityCommon, criteria, 10)}, nil
		},
	}
	svc := app.NewAchievementService(repo, metrics)

	result, err := svc.Check(context.Background(), 1, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.NewlyUnlocked) != 0 {
		t.Fatalf("newlyUnlocked = %+v; want none", result.NewlyUnlocked)
	}
	if len(repo.saved) != 1 || repo.saved[0].Progress.Current != 3 {
		t.Fatalf("expected progress 3 persisted, got %+v", repo.saved)
	}
}

func TestCheckSkipsUnchangedProgress(t *testing.T) {
	acts := &mockActivityRepo{
		countActiveFn: func(_ context.Context, _ int64, _ string, _ time.Time) (int, error) {
			return 3, nil
		},
	}
	metrics := app.NewMetricsService(&mockUserRepo{}, acts, &mockGoalRepo{})

	criteria := domain.Criteria{Metric: domain.MetricActivitiesCount, Threshold: 10, Timeframe: domain.TimeframeLifetime}
	repo := &mockAchievementRepo{
		listEligibleFn: func(_ context.Context, _ int64, _ time.Time) ([]domain.Achievement, error) {
			a := eligibleAchievement("a1", domain.RarityCommon, criteria, 10)
			a.Progress.Current = 3
			return []domain.Achievement{a}, nil
		},
	}
	svc := app.NewAchievementService(repo, metrics)

	if _, err := svc.Check(context.Background(), 1, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("unchanged progress must not be persisted, got %d saves", len(repo.saved))
	}
}

func TestCheckIsolatesPerItemFailures(t *testing.T) {
	acts := &mockActivityRepo{
		countActiveFn: func(_ context.Context, _ int64, _ string, _ time.Time) (int, error) {
			return 5, nil
		},
	}
	metrics := app.NewMetricsService(&mockUserRepo{}, acts, &mockGoalRepo{})

	bad := eligibleAchievement("bad", domain.RarityCommon,
		domain.Criteria{Metric: "likes_received", Threshold: 1, Timeframe: domain.TimeframeLifetime}, 1)
	good := eligibleAchievement("good", domain.RarityRare,
		domain.Criteria{Metric: domain.MetricActivitiesCount, Threshold: 5, Timeframe: domain.TimeframeLifetime}, 5)

	repo := &mockAchievementRepo{
		listEligibleFn: func(_ context.Context, _ int64, _ time.Time) ([]domain.Achievement, error) {
			return []domain.Achievement{bad, good}, nil
		},
	}
	svc := app.NewAchievementService(repo, metrics)

	result, err := svc.Check(context.Background(), 1, testNow)
	if err != nil {
		t.Fatalf("check must not fail on a single bad item: %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].AchievementID != "bad" {
		t.Fatalf("failed = %+v; want [bad]", result.Failed)
	}
	if len(result.NewlyUnlocked) != 1 || result.NewlyUnlocked[0].ID != "good" {
		t.Fatalf("newlyUnlocked = %+v; want [good]", result.NewlyUnlocked)
	}
}

func TestCheckDeterministicOrder(t *testing.T) {
	acts := &mockActivityRepo{
		countActiveFn: func(_ context.Context, _ int64, _ string, _ time.Time) (int, error) {
			return 100, nil
		},
	}
	metrics := app.NewMetricsService(&mockUserRepo{}, acts, &mockGoalRepo{})

	criteria := domain.Criteria{Metric: domain.MetricActivitiesCount, Threshold: 1, Timeframe: domain.TimeframeLifetime}
	// The repository contract orders by rarity then creation; the service
	// must preserve that order in its results.
	ordered := []domain.Achievement{
		eligibleAchievement("c1", domain.RarityCommon, criteria, 1),
		eligibleAchievement("c2", domain.RarityCommon, criteria, 1),
		eligibleAchievement("r1", domain.RarityRare, criteria, 1),
		eligibleAchievement("l1", domain.RarityLegendary, criteria, 1),
	}
	repo := &mockAchievementRepo{
		listEligibleFn: func(_ context.Context, _ int64, _ time.Time) ([]domain.Achievement, error) {
			out := make([]domain.Achievement, len(ordered))
			copy(out, ordered)
			return out, nil
		},
	}
	svc := app.NewAchievementService(repo, metrics)

	for run := 0; run < 2; run++ {
		repo.saved = nil
		result, err := svc.Check(context.Background(), 1, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"c1", "c2", "r1", "l1"}
		if len(result.NewlyUnlocked) != len(want) {
			t.Fatalf("run %d: got %d unlocked; want %d", run, len(result.NewlyUnlocked), len(want))
		}
		for i, w := range want {
			if result.NewlyUnlocked[i].ID != w {
				t.Errorf("run %d: position %d = %s; want %s", run, i, result.NewlyUnlocked[i].ID, w)
			}
		}
	}
}

func TestForceUnlock(t *testing.T) {
	stored := eligibleAchievement("a1", domain.RarityEpic,
		domain.Criteria{Metric: domain.MetricStreakDays, Threshold: 30, Timeframe: domain.TimeframeLifetime}, 30)
	repo := &mockAchievementRepo{
		getFn: func(_ context.Context, _ int64, id string) (*domain.Achievement, error) {
			if id != "a1" {
				return nil, nil
			}
			a := stored
			return &a, nil
		},
	}
	svc := app.NewAchievementService(repo, app.NewMetricsService(&mockUserRepo{}, &mockActivityRepo{}, &mockGoalRepo{}))

	view, err := svc.ForceUnlock(context.Background(), 1, "a1", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Unlocked || view.Current != 30 {
		t.Fatalf("view = %+v; want unlocked at required", view)
	}

	if _, err := svc.ForceUnlock(context.Background(), 1, "missing", testNow); !errors.Is(err, app.ErrAchievementNotFound) {
		t.Fatalf("err = %v; want ErrAchievementNotFound", err)
	}
}

func TestAchievementStatsOverview(t *testing.T) {
	unlockedAt := testNow.Add(-time.Hour)
	items := []domain.Achievement{
		{ID: "a1", Rarity: domain.RarityCommon, Points: 10, Active: true, Unlocked: true, UnlockedAt: &unlockedAt},
		{ID: "a2", Rarity: domain.RarityCommon, Points: 10, Active: true, Unlocked: true, UnlockedAt: &unlockedAt},
		{ID: "a3", Rarity: domain.RarityRare, Points: 50, Active: false, Unlocked: true, UnlockedAt: &unlockedAt},
		{ID: "a4", Rarity: domain.RarityEpic, Points: 100, Active: true},
	}
	repo := &mockAchievementRepo{
		listFn: func(_ context.Context, _ int64) ([]domain.Achievement, error) {
			return items, nil
		},
	}
	svc := app.NewAchievementService(repo, app.NewMetricsService(&mockUserRepo{}, &mockActivityRepo{}, &mockGoalRepo{}))

	stats, err := svc.StatsOverview(context.Background(), 1, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 4 || stats.Unlocked != 3 || stats.Available != 1 {
		t.Errorf("counts = %+v; want total 4, unlocked 3, available 1", stats)
	}
	// a3 is unlocked but inactive, so its points do not count.
	if stats.TotalPoints != 20 {
		t.Errorf("totalPoints = %d; want 20", stats.TotalPoints)
	}
	if stats.CompletionRate != 75 {
		t.Errorf("completionRate = %v; want 75", stats.CompletionRate)
	}
	if stats.ByRarity["common"] != 2 || stats.ByRarity["rare"] != 1 {
		t.Errorf("byRarity = %v", stats.ByRarity)
	}
}

func TestAchievementStatsEmpty(t *testing.T) {
	repo := &mockAchievementRepo{
		listFn: func(_ context.Context, _ int64) ([]domain.Achievement, error) {
			return nil, nil
		},
	}
	svc := app.NewAchievementService(repo, app.NewMetricsService(&mockUserRepo{}, &mockActivityRepo{}, &mockGoalRepo{}))

	stats, err := svc.StatsOverview(context.Background(), 1, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CompletionRate != 0 {
		t.Errorf("completionRate = %v; want 0 with no achievements", stats.CompletionRate)
	}
}
