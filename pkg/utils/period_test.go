// FILE: pkg/utils/period_test.go
package utils

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{name: "plain month", start: date(2025, time.March, 15), months: 1, want: date(2025, time.April, 15)},
		{name: "jan 31 clamps to feb 28", start: date(2025, time.January, 31), months: 1, want: date(2025, time.February, 28)},
		{name: "jan 31 clamps to feb 29 on leap year", start: date(2024, time.January, 31), months: 1, want: date(2024, time.February, 29)},
		{name: "may 31 clamps to jun 30", start: date(2025, time.May, 31), months: 1, want: date(2025, time.June, 30)},
		{name: "year boundary", start: date(2025, time.December, 15), months: 1, want: date(2026, time.January, 15)},
		{name: "multiple months", start: date(2025, time.January, 31), months: 3, want: date(2025, time.April, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddMonthsClamped(tt.start, tt.months); !got.Equal(tt.want) {
				t.Errorf("AddMonthsClamped(%v, %d) = %v, want %v", tt.start, tt.months, got, tt.want)
			}
		})
	}
}

func TestAddYears(t *testing.T) {
	got := AddYears(date(2024, time.February, 29), 1)
	want := date(2025, time.February, 28)
	if !got.Equal(want) {
		t.Errorf("AddYears(2024-02-29, 1) = %v, want %v", got, want)
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2025, time.February); got != 28 {
		t.Errorf("DaysInMonth(2025, February) = %d, want 28", got)
	}
	if got := DaysInMonth(2024, time.February); got != 29 {
		t.Errorf("DaysInMonth(2024, February) = %d, want 29", got)
	}
	if got := DaysInMonth(2025, time.December); got != 31 {
		t.Errorf("DaysInMonth(2025, December) = %d, want 31", got)
	}
}
