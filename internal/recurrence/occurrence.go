// Package recurrence computes the next occurrence date for a recurring
// task. Both the tool server's skip_occurrence tool and the recurring
// materializer consumer advance by the same rule, so it lives here once
// instead of twice.
package recurrence

import (
	"fmt"
	"time"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// Advance steps from a date by one recurrence interval. every defaults to 1
// when unset or negative. Monthly and yearly arithmetic clamps day overflow
// to the target month's last day (Jan 31 + 1 month -> Feb 28, or Feb 29 in a
// leap year) instead of using time.AddDate's rollover (which would turn that
// into Mar 3); daily/weekly stay on AddDate since a fixed day count has no
// overflow to clamp.
func Advance(from time.Time, pattern models.RecurrencePattern, every int) (time.Time, error) {
	interval := every
	if interval < 1 {
		interval = 1
	}
	switch pattern {
	case models.RecurrenceDaily:
		return from.AddDate(0, 0, interval), nil
	case models.RecurrenceWeekly:
		return from.AddDate(0, 0, 7*interval), nil
	case models.RecurrenceMonthly:
		return addClampedMonths(from, interval), nil
	case models.RecurrenceYearly:
		return addClampedMonths(from, 12*interval), nil
	default:
		return time.Time{}, fmt.Errorf("recurrence: invalid pattern %q", pattern)
	}
}

// addClampedMonths adds months calendar months to from, clamping the day of
// month to the target month's last day when the source day doesn't exist
// there (the 29th-31st landing in a shorter month).
func addClampedMonths(from time.Time, months int) time.Time {
	year, month, day := from.Date()
	hour, min, sec := from.Clock()

	total := int(month) - 1 + months
	targetYear := year + total/12
	targetMonth := total % 12
	if targetMonth < 0 {
		targetMonth += 12
		targetYear--
	}

	if last := daysInMonth(targetYear, time.Month(targetMonth+1)); day > last {
		day = last
	}

	return time.Date(targetYear, time.Month(targetMonth+1), day, hour, min, sec, from.Nanosecond(), from.Location())
}

// daysInMonth returns the number of days in the given calendar month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
