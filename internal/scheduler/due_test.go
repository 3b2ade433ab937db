package scheduler

import (
	"testing"
	"time"
)

func at(weekday time.Weekday, hour, minute int) time.Time {
	// 2026-03-02 is a Monday.
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(weekday-time.Monday)).
		Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestDailyDueWindow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before run time", at(time.Monday, 7, 59), false},
		{"at run time", at(time.Monday, 8, 0), true},
		{"inside window", at(time.Monday, 8, 4), true},
		{"window closed", at(time.Monday, 8, 5), false},
		{"later in the day", at(time.Monday, 15, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, due, err := DailyDue(tt.now, "08:00", "")
			if err != nil {
				t.Fatalf("DailyDue() error = %v", err)
			}
			if due != tt.want {
				t.Errorf("due = %v, want %v", due, tt.want)
			}
			if period != "2026-03-02" {
				t.Errorf("period = %q, want 2026-03-02", period)
			}
		})
	}
}

func TestDailyDueOncePerDay(t *testing.T) {
	now := at(time.Monday, 8, 2)

	period, due, err := DailyDue(now, "08:00", "")
	if err != nil || !due {
		t.Fatalf("DailyDue() = (%v, %v), want due", due, err)
	}

	_, due, err = DailyDue(now.Add(time.Minute), "08:00", period)
	if err != nil {
		t.Fatalf("DailyDue() error = %v", err)
	}
	if due {
		t.Error("job already ran this period, must not be due again")
	}

	_, due, err = DailyDue(now.AddDate(0, 0, 1), "08:00", period)
	if err != nil {
		t.Fatalf("DailyDue() error = %v", err)
	}
	if !due {
		t.Error("next day is a new period, job must be due")
	}
}

func TestDailyDueWindowNearHourEnd(t *testing.T) {
	// The window never crosses the hour, so a HH:58 run time only covers
	// minutes 58 and 59.
	if _, due, _ := DailyDue(at(time.Monday, 8, 59), "08:58", ""); !due {
		t.Error("08:59 should be inside the 08:58 window")
	}
	if _, due, _ := DailyDue(at(time.Monday, 9, 0), "08:58", ""); due {
		t.Error("09:00 should be outside the 08:58 window")
	}
}

func TestDailyDueRejectsBadClock(t *testing.T) {
	for _, runAt := range []string{"", "8h00", "25:00", "08:60"} {
		if _, _, err := DailyDue(at(time.Monday, 8, 0), runAt, ""); err == nil {
			t.Errorf("DailyDue(%q) expected an error", runAt)
		}
	}
}

func TestWeeklyDue(t *testing.T) {
	runDay := int(time.Monday)

	_, due, err := WeeklyDue(at(time.Monday, 9, 1), "09:00", runDay, "")
	if err != nil || !due {
		t.Fatalf("WeeklyDue() = (%v, %v), want due on the run day", due, err)
	}

	_, due, _ = WeeklyDue(at(time.Tuesday, 9, 1), "09:00", runDay, "")
	if due {
		t.Error("job must not fire on another weekday")
	}

	period, _, _ := WeeklyDue(at(time.Monday, 9, 1), "09:00", runDay, "")
	if period != "2026-W10" {
		t.Errorf("period = %q, want 2026-W10", period)
	}

	_, due, _ = WeeklyDue(at(time.Monday, 9, 1), "09:00", runDay, period)
	if due {
		t.Error("job already ran this week, must not be due again")
	}
}

func TestWeeklyPeriodChangesAcrossWeeks(t *testing.T) {
	monday := at(time.Monday, 9, 0)
	thisWeek := weeklyPeriod(monday)
	nextWeek := weeklyPeriod(monday.AddDate(0, 0, 7))
	if thisWeek == nextWeek {
		t.Errorf("consecutive weeks share period %q", thisWeek)
	}
}
