package domain

import "time"

// maxStreakScan bounds the backward scan so a dense history cannot make
// the streak walk unbounded.
const maxStreakScan = 365

// StreakDays returns the length of the unbroken run of calendar days,
// ending on now's local day, that each contain at least one of the given
// activity dates. The scan walks backward one day at a time and stops at
// the first day with no activity, so a gap on now's own day yields 0.
// Duplicate dates within a day do not double-count.
func StreakDays(now time.Time, dates []time.Time) int {
	days := make(map[string]bool, len(dates))
	for _, d := range dates {
		days[d.In(now.Location()).Format("2006-01-02")] = true
	}

	streak := 0
	day := now
	for i := 0; i < maxStreakScan; i++ {
		if !days[day.Format("2006-01-02")] {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
