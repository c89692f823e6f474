package task

import (
	"fmt"
	"strings"
	"time"

	"nt/internal/date"
)

// DueLabel describes the due date relative to today, or "" when unset.
// soonDays is the due-soon window.
func (t *Task) DueLabel(today time.Time, soonDays int) string {
	if t.dueDate == nil {
		return ""
	}
	d := date.Format(*t.dueDate)
	switch {
	case t.completed:
		return "due " + d
	case t.OverdueOn(today):
		return "overdue " + d
	case t.DueTodayOn(today):
		return "due today"
	case t.DueSoonOn(today, soonDays):
		return "due soon " + d
	default:
		return "due " + d
	}
}

func (t *Task) Checkbox() string {
	if t.completed {
		return "[x]"
	}
	return "[ ]"
}

// String renders t and its subtree, two spaces of indent per level.
func (t *Task) String() string {
	var b strings.Builder
	t.write(&b, 0, date.Today())
	return b.String()
}

func (t *Task) write(b *strings.Builder, level int, today time.Time) {
	fmt.Fprintf(b, "%s%s %d: %s", strings.Repeat("  ", level), t.Checkbox(), t.id, t.title)
	if label := t.DueLabel(today, DefaultDueSoonDays); label != "" {
		fmt.Fprintf(b, " (%s)", label)
	}
	for _, c := range t.children {
		b.WriteString("\n")
		c.write(b, level+1, today)
	}
}
