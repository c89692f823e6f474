// Package date handles calendar dates (no time of day) for due dates.
//
// Dates are represented as time.Time values at midnight UTC so that two
// dates can be compared with Equal/Before and subtracted in whole days.
package date

import (
	"time"
)

// Layout is the storage and display format for due dates.
const Layout = "2006-01-02"

var nowFunc = time.Now

// Today returns the current local calendar date.
func Today() time.Time {
	return Of(nowFunc())
}

// Of strips the time of day from t, keeping t's calendar date.
func Of(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns to - from in whole days, negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(Of(to).Sub(Of(from)).Hours() / 24)
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// ParseISO parses a strict YYYY-MM-DD string.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Of(t), nil
}

// Ptr returns a pointer to the calendar date of t.
func Ptr(t time.Time) *time.Time {
	d := Of(t)
	return &d
}
