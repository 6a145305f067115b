// FILE: pkg/utils/period.go
package utils

import "time"

// AddMonthsClamped adds calendar months preserving the day-of-month,
// clamping to the last valid day when the target month is shorter.
// time.AddDate normalizes instead (Jan 31 + 1 month = Mar 2/3), which is
// wrong for billing periods.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)
	if last := DaysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears adds calendar years, clamping Feb 29 to Feb 28 on non-leap
// targets.
func AddYears(t time.Time, years int) time.Time {
	return AddMonthsClamped(t, years*12)
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
