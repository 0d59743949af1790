package domain_test

import (
	"testing"
	"time"

	"ecotrack/internal/domain"
)

func TestStreakDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"no activity", nil, 0},
		{"today only", []time.Time{day(0)}, 1},
		{"gap at day minus three", []time.Time{day(0), day(-1), day(-2), day(-4)}, 3},
		{"no activity today", []time.Time{day(-1), day(-2), day(-3)}, 0},
		{"duplicates within a day", []time.Time{day(0), day(0).Add(2 * time.Hour), day(-1)}, 2},
		{"unordered input", []time.Time{day(-2), day(0), day(-1)}, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.StreakDays(now, tc.dates)
			if got != tc.want {
				t.Errorf("StreakDays = %d; want %d", got, tc.want)
			}
		})
	}
}

func TestStreakDaysCap(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, 400)
	for i := 0; i < 400; i++ {
		dates = append(dates, now.AddDate(0, 0, -i))
	}
	if got := domain.StreakDays(now, dates); got != 365 {
		t.Errorf("StreakDays with 400-day run = %d; want cap 365", got)
	}
}
