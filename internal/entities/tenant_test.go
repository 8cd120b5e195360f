package entities

import (
	"testing"
	"time"
)

// mustTime builds a local time on a fixed date; 2026-01-05 is a Monday.
func mustTime(t *testing.T, weekdayOffset, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, 1, 5+weekdayOffset, hour, minute, 0, 0, time.Local)
}

func TestBusinessHoursIsOpenAt(t *testing.T) {
	weekdays := BusinessHours{
		"monday":  {Open: "09:00", Close: "18:00"},
		"tuesday": {Open: "09:00", Close: "18:00"},
		"friday":  {Closed: true, Open: "09:00", Close: "18:00"},
	}

	tests := []struct {
		name  string
		hours BusinessHours
		at    time.Time
		want  bool
	}{
		{"no hours configured means always open", BusinessHours{}, mustTime(t, 0, 3, 0), true},
		{"nil hours means always open", nil, mustTime(t, 6, 23, 59), true},
		{"inside window", weekdays, mustTime(t, 0, 10, 30), true},
		{"before opening", weekdays, mustTime(t, 0, 8, 59), false},
		{"at opening minute", weekdays, mustTime(t, 0, 9, 0), true},
		{"at closing minute", weekdays, mustTime(t, 0, 18, 0), false},
		{"day not listed counts as closed", weekdays, mustTime(t, 2, 10, 0), false},
		{"closed flag wins over window", weekdays, mustTime(t, 4, 10, 0), false},
		{
			"malformed open counts as closed",
			BusinessHours{"monday": {Open: "late", Close: "18:00"}},
			mustTime(t, 0, 10, 0),
			false,
		},
		{
			"out of range clock counts as closed",
			BusinessHours{"monday": {Open: "09:00", Close: "25:00"}},
			mustTime(t, 0, 10, 0),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hours.IsOpenAt(tt.at); got != tt.want {
				t.Errorf("IsOpenAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestBusinessHoursMidnightCrossing(t *testing.T) {
	hours := BusinessHours{
		"monday":  {Open: "18:00", Close: "02:00"},
		"tuesday": {Open: "18:00", Close: "02:00"},
	}

	if !hours.IsOpenAt(mustTime(t, 0, 23, 30)) {
		t.Error("expected open at 23:30 inside an 18:00-02:00 window")
	}
	if !hours.IsOpenAt(mustTime(t, 1, 1, 30)) {
		t.Error("expected open at 01:30 inside an 18:00-02:00 window")
	}
	if hours.IsOpenAt(mustTime(t, 0, 12, 0)) {
		t.Error("expected closed at noon outside an 18:00-02:00 window")
	}
}
