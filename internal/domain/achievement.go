package domain

import (
	"context"
	"time"
)

// Rarity is the display tier of an achievement. Rarities order
// achievements during evaluation: common first, legendary last.
type Rarity string

// Achievement rarities.
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank returns the sort position of the rarity, common lowest. Unknown
// rarities sort last.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	}
	return 5
}

// Criteria describes the metric an achievement unlocks against.
type Criteria struct {
	Metric    MetricKind `json:"metric"`
	Threshold float64    `json:"threshold"`
	Unit      string     `json:"unit"`
	Timeframe Timeframe  `json:"timeframe"`
}

// Progress is the current standing of an achievement toward its
// required value.
type Progress struct {
	Current   float64   `json:"current"`
	Required  float64   `json:"required"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Achievement is a system-defined unlockable badge owned by one user.
type Achievement struct {
	ID          string            `json:"id"`
	UserID      int64             `json:"userId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	Rarity      Rarity            `json:"rarity"`
	Points      int               `json:"points"`
	Criteria    Criteria          `json:"criteria"`
	Progress    Progress          `json:"progress"`
	Unlocked    bool              `json:"unlocked"`
	UnlockedAt  *time.Time        `json:"unlockedAt,omitempty"`
	Hidden      bool              `json:"hidden"`
	Active      bool              `json:"active"`
	ExpiresAt   *time.Time        `json:"expiresAt,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// UpdateProgress sets Progress.Current to max(0, v) and stamps the
// update time. When the new value reaches Required on a not-yet-unlocked
// achievement it unlocks it, snapping Current to exactly Required and
// recording the unlock time. Returns true only on that transition.
// Pre-unlock regression (a smaller v) is allowed; Unlocked never resets.
func (a *Achievement) UpdateProgress(v float64, now time.Time) bool {
	if v < 0 {
		v = 0
	}
	a.Progress.Current = v
	a.Progress.UpdatedAt = now

	if !a.Unlocked && a.Progress.Current >= a.Progress.Required {
		a.Progress.Current = a.Progress.Required
		a.Unlocked = true
		at := now
		a.UnlockedAt = &at
		return true
	}
	return false
}

// Unlock force-unlocks the achievement, setting progress to the required
// value. Idempotent: already-unlocked achievements are left untouched.
func (a *Achievement) Unlock(now time.Time) {
	if a.Unlocked {
		return
	}
	a.Progress.Current = a.Progress.Required
	a.Progress.UpdatedAt = now
	a.Unlocked = true
	at := now
	a.UnlockedAt = &at
}

// EligibleAt reports whether the achievement should be considered during
// a progress check: not yet unlocked, visible, active, and not expired.
func (a *Achievement) EligibleAt(now time.Time) bool {
	if a.Unlocked || a.Hidden || !a.Active {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

// AchievementRepository is the port for achievement persistence.
// ListEligible and ListAchievements return achievements ordered by
// rarity ascending, then creation time, then ID; the order is stable
// across calls. SaveProgress persists progress and unlock state as one
// atomic update.
type AchievementRepository interface {
	CreateAchievement(ctx context.Context, a Achievement) error
	ListEligible(ctx context.Context, userID int64, now time.Time) ([]Achievement, error)
	ListAchievements(ctx context.Context, userID int64) ([]Achievement, error)
	GetAchievement(ctx context.Context, userID int64, id string) (*Achievement, error)
	SaveProgress(ctx context.Context, a Achievement) error
	CountUnlocked(ctx context.Context, userID int64) (int, error)
}
