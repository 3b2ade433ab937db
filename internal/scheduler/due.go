package scheduler

import (
	"fmt"
	"time"

	"agencydesk_backend/internal/settings"
)

// runWindow is how long after the configured run time a job stays eligible.
// The tick interval must be shorter than this or runs get skipped.
const runWindow = 5 * time.Minute

func dailyPeriod(now time.Time) string {
	return now.Format("2006-01-02")
}

func weeklyPeriod(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// inWindow reports whether now falls inside the run window opening at
// hour:minute. The window never crosses the hour boundary, so a run time
// configured at HH:58 gets a shorter window.
func inWindow(now time.Time, hour, minute int) bool {
	if now.Hour() != hour {
		return false
	}
	return now.Minute() >= minute && time.Duration(now.Minute()-minute)*time.Minute < runWindow
}

// DailyDue decides whether a daily job should fire at now, given the period
// it last ran for. A malformed run time is a configuration error and fails
// the decision.
func DailyDue(now time.Time, runAt, lastPeriod string) (period string, due bool, err error) {
	hour, minute, err := settings.ParseClock(runAt)
	if err != nil {
		return "", false, fmt.Errorf("daily run time: %w", err)
	}

	period = dailyPeriod(now)
	if period == lastPeriod {
		return period, false, nil
	}
	return period, inWindow(now, hour, minute), nil
}

// WeeklyDue decides whether a weekly job should fire at now. runDay follows
// time.Weekday numbering; the period is the ISO week so a job fires once per
// week even if the run day is moved mid-week.
func WeeklyDue(now time.Time, runAt string, runDay int, lastPeriod string) (period string, due bool, err error) {
	hour, minute, err := settings.ParseClock(runAt)
	if err != nil {
		return "", false, fmt.Errorf("weekly run time: %w", err)
	}

	period = weeklyPeriod(now)
	if period == lastPeriod {
		return period, false, nil
	}
	if int(now.Weekday()) != runDay {
		return period, false, nil
	}
	return period, inWindow(now, hour, minute), nil
}
