package domain

import (
	"testing"
	"time"
)

func TestWeekStartOf(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-06-02", "2025-06-02"}, // Monday maps to itself
		{"2025-06-04", "2025-06-02"}, // Wednesday
		{"2025-06-07", "2025-06-02"}, // Saturday
		{"2025-06-08", "2025-06-02"}, // Sunday belongs to the preceding Monday
		{"2025-06-09", "2025-06-09"}, // next Monday opens a new week
		{"2025-01-01", "2024-12-30"}, // week spanning a year boundary
	}
	for _, c := range cases {
		d, err := ParseDate(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if got := WeekStartOf(d); got != c.want {
			t.Errorf("WeekStartOf(%s) = %s; want %s", c.in, got, c.want)
		}
	}
}

func TestWeekStartOfDate(t *testing.T) {
	got, err := WeekStartOfDate("2025-06-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2025-06-02" {
		t.Fatalf("WeekStartOfDate = %s; want 2025-06-02", got)
	}
	if _, err := WeekStartOfDate("06/08/2025"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}

func TestWeekEnd_NextWeekStart(t *testing.T) {
	end, err := WeekEnd("2025-06-02")
	if err != nil {
		t.Fatalf("WeekEnd: %v", err)
	}
	if end != "2025-06-08" {
		t.Fatalf("WeekEnd = %s; want 2025-06-08", end)
	}
	next, err := NextWeekStart("2025-06-02")
	if err != nil {
		t.Fatalf("NextWeekStart: %v", err)
	}
	if next != "2025-06-09" {
		t.Fatalf("NextWeekStart = %s; want 2025-06-09", next)
	}
	if _, err := WeekEnd("nonsense"); err == nil {
		t.Fatalf("expected error for bad week start")
	}
}

func TestParseFormatDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Weekday() != time.Friday {
		t.Fatalf("weekday = %v; want Friday", d.Weekday())
	}
	if FormatDate(d) != "2025-02-28" {
		t.Fatalf("FormatDate = %q", FormatDate(d))
	}
	if _, err := ParseDate("2025-02-30"); err == nil {
		t.Fatalf("expected error for impossible date")
	}
}
