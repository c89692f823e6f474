// Package export renders the task tree as a Markdown checklist.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nt/internal/date"
	"nt/internal/manager"
	"nt/internal/task"
)

const DefaultFileName = "tasks.md"

// Markdown renders a header, the statistics and the nested task list.
// generated is printed as the export timestamp.
func Markdown(m *manager.Manager, generated time.Time) string {
	var b strings.Builder
	s := m.Statistics()

	b.WriteString("# Task List\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generated.Format("2006-01-02 15:04:05"))

	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- Total tasks: %d\n", s.Total)
	fmt.Fprintf(&b, "- Completed: %d\n", s.Completed)
	fmt.Fprintf(&b, "- Remaining: %d\n", s.Total-s.Completed)
	fmt.Fprintf(&b, "- Overdue: %d\n", s.Overdue)
	fmt.Fprintf(&b, "- Due today: %d\n\n", s.DueToday)

	b.WriteString("## Tasks\n\n")
	entries := m.Flatten()
	if len(entries) == 0 {
		b.WriteString("_No tasks yet._")
		return b.String()
	}
	today := m.Today()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, line(e.Task, e.Depth, today))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func line(t *task.Task, depth int, today time.Time) string {
	l := fmt.Sprintf("%s- %s %s", strings.Repeat("  ", depth), t.Checkbox(), t.Title())
	d := t.DueDate()
	switch {
	case d == nil:
	case t.OverdueOn(today):
		l += fmt.Sprintf(" _(**OVERDUE: %s**)_", date.Format(*d))
	case t.DueTodayOn(today):
		l += " _(**DUE TODAY**)_"
	default:
		l += fmt.Sprintf(" _(Due: %s)_", date.Format(*d))
	}
	return l
}

// FileName defaults an empty name and appends .md when missing.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultFileName
	}
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	return name
}

// Save writes content to FileName(name) and returns the path written.
func Save(name, content string) (string, error) {
	path := FileName(name)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
