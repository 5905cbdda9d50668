package domain

import (
	"fmt"
	"time"
)

// ParseDate parses an ISO "YYYY-MM-DD" calendar date. The returned time is
// midnight UTC; callers only ever use the date portion.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t as an ISO "YYYY-MM-DD" calendar date.
func FormatDate(t time.Time) string { return t.Format(time.DateOnly) }

// WeekStartOf returns the Monday of the week containing t, as "YYYY-MM-DD".
// Weeks run Monday through Sunday, so a Sunday maps to the previous Monday.
func WeekStartOf(t time.Time) string {
	wd := int(t.Weekday()) // Sunday == 0
	if wd == 0 {
		wd = 7
	}
	return FormatDate(t.AddDate(0, 0, -(wd - 1)))
}

// WeekStartOfDate normalizes any "YYYY-MM-DD" date to the Monday of its week.
func WeekStartOfDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return WeekStartOf(t), nil
}

// WeekEnd returns the Sunday that closes the week opened by weekStart.
// weekStart must already be a well-formed "YYYY-MM-DD" Monday.
func WeekEnd(weekStart string) (string, error) {
	t, err := ParseDate(weekStart)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, 6)), nil
}

// NextWeekStart returns the Monday following weekStart, i.e. the day the
// weekly analysis quota resets.
func NextWeekStart(weekStart string) (string, error) {
	t, err := ParseDate(weekStart)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, 7)), nil
}
