package domain

import "time"

// MetricKind is the closed set of quantities achievements can be
// defined against.
type MetricKind string

// Metric kinds. Community posts and education modules are reserved for
// features that do not exist yet; they always evaluate to zero.
const (
	MetricCarbonReduction  MetricKind = "carbon_reduction"
	MetricActivitiesCount  MetricKind = "activities_count"
	MetricStreakDays       MetricKind = "streak_days"
	MetricGoalsCompleted   MetricKind = "goals_completed"
	MetricCommunityPosts   MetricKind = "community_posts"
	MetricEducationModules MetricKind = "education_modules"
)

// Valid reports whether m is a known metric kind.
func (m MetricKind) Valid() bool {
	switch m {
	case MetricCarbonReduction, MetricActivitiesCount, MetricStreakDays,
		MetricGoalsCompleted, MetricCommunityPosts, MetricEducationModules:
		return true
	}
	return false
}

// Timeframe is the rolling or fixed window over which a metric is
// aggregated.
type Timeframe string

// Timeframes.
const (
	TimeframeDaily    Timeframe = "daily"
	TimeframeWeekly   Timeframe = "weekly"
	TimeframeMonthly  Timeframe = "monthly"
	TimeframeYearly   Timeframe = "yearly"
	TimeframeLifetime Timeframe = "lifetime"
)

// Valid reports whether t is a known timeframe.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeYearly, TimeframeLifetime:
		return true
	}
	return false
}

// WindowStart resolves the lower bound of the aggregation window ending
// at now. Daily starts at local midnight; weekly, monthly and yearly are
// rolling windows; lifetime has no lower bound and returns the zero time.
func (t Timeframe) WindowStart(now time.Time) time.Time {
	switch t {
	case TimeframeDaily:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case TimeframeWeekly:
		return now.AddDate(0, 0, -7)
	case TimeframeMonthly:
		return now.AddDate(0, -1, 0)
	case TimeframeYearly:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}
