package task

import (
	"time"

	"nt/internal/date"
)

// DefaultDueSoonDays is the window used by DueSoon.
const DefaultDueSoonDays = 3

// The *On variants take the reference date explicitly; the plain forms use
// date.Today().

func (t *Task) OverdueOn(today time.Time) bool {
	if t.dueDate == nil || t.completed {
		return false
	}
	return t.dueDate.Before(date.Of(today))
}

func (t *Task) DueTodayOn(today time.Time) bool {
	if t.dueDate == nil {
		return false
	}
	return t.dueDate.Equal(date.Of(today))
}

func (t *Task) DueSoonOn(today time.Time, days int) bool {
	if t.dueDate == nil || t.completed {
		return false
	}
	today = date.Of(today)
	return !t.dueDate.Before(today) && !t.dueDate.After(today.AddDate(0, 0, days))
}

// DaysUntilDueOn returns the signed day count and false when no due date is set.
func (t *Task) DaysUntilDueOn(today time.Time) (int, bool) {
	if t.dueDate == nil {
		return 0, false
	}
	return date.DaysBetween(today, *t.dueDate), true
}

func (t *Task) Overdue() bool  { return t.OverdueOn(date.Today()) }
func (t *Task) DueToday() bool { return t.DueTodayOn(date.Today()) }

func (t *Task) DueSoon(days int) bool { return t.DueSoonOn(date.Today(), days) }

func (t *Task) DaysUntilDue() (int, bool) { return t.DaysUntilDueOn(date.Today()) }

// HasDueDate reports whether a due date is set.
func (t *Task) HasDueDate() bool { return t.dueDate != nil }
