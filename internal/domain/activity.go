package domain

import (
	"context"
	"time"
)

// ActivityStatus is the lifecycle state of an activity. Only active
// activities count toward metrics.
type ActivityStatus string

// Activity statuses.
const (
	ActivityActive    ActivityStatus = "active"
	ActivityCompleted ActivityStatus = "completed"
	ActivityCancelled ActivityStatus = "cancelled"
)

// Activity categories (closed set).
const (
	CategoryTransport = "transport"
	CategoryEnergy    = "energy"
	CategoryFood      = "food"
	CategoryWaste     = "waste"
	CategoryWater     = "water"
	CategoryShopping  = "shopping"
	CategoryOther     = "other"
)

// ValidCategory reports whether c is one of the known activity categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryTransport, CategoryEnergy, CategoryFood, CategoryWaste,
		CategoryWater, CategoryShopping, CategoryOther:
		return true
	}
	return false
}

// Activity represents a single dated environmental activity record.
// CarbonAmount is the footprint impact entered by the caller, expressed
// in CarbonUnit ("kg" or "ton"). Metadata is an optional typed extension
// map for side-channel data.
type Activity struct {
	ID           string            `json:"id"`
	UserID       int64             `json:"userId"`
	Category     string            `json:"category"`
	Description  string            `json:"description"`
	CarbonAmount float64           `json:"carbonAmount"`
	CarbonUnit   string            `json:"carbonUnit"`
	Status       ActivityStatus    `json:"status"`
	Date         time.Time         `json:"date"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// ActivityRepository is the port for activity persistence. A zero since
// value means no lower bound; an empty category matches all categories.
type ActivityRepository interface {
	AddActivity(ctx context.Context, a Activity) error
	CountActive(ctx context.Context, userID int64, category string, since time.Time) (int, error)
	ListActiveSince(ctx context.Context, userID int64, since time.Time) ([]Activity, error)
	ListRecentActivities(ctx context.Context, userID int64, limit int) ([]Activity, error)
	DeleteActivity(ctx context.Context, userID int64, id string) (bool, error)
}
