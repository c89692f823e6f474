package manager

import (
	"context"

	"nt/internal/task"
)

func (m *Manager) filter(keep func(*task.Task) bool) []*task.Task {
	var out []*task.Task
	for _, t := range m.All() {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Manager) Roots() []*task.Task {
	return m.filter((*task.Task).IsRoot)
}

func (m *Manager) Completed() []*task.Task {
	return m.filter((*task.Task).Completed)
}

func (m *Manager) Incomplete() []*task.Task {
	return m.filter(func(t *task.Task) bool { return !t.Completed() })
}

func (m *Manager) Overdue() []*task.Task {
	today := m.today()
	return m.filter(func(t *task.Task) bool { return t.OverdueOn(today) })
}

func (m *Manager) DueToday() []*task.Task {
	today := m.today()
	return m.filter(func(t *task.Task) bool { return t.DueTodayOn(today) })
}

// DueSoon returns incomplete tasks due within days of today. days <= 0 uses
// the manager's configured window.
func (m *Manager) DueSoon(days int) []*task.Task {
	if days <= 0 {
		days = m.dueSoonDays
	}
	today := m.today()
	return m.filter(func(t *task.Task) bool { return t.DueSoonOn(today, days) })
}

func (m *Manager) WithDueDate() []*task.Task {
	return m.filter((*task.Task).HasDueDate)
}

// ChildTasks returns every task that has a parent.
func (m *Manager) ChildTasks() []*task.Task {
	return m.filter(func(t *task.Task) bool { return !t.IsRoot() })
}

// ParentTasks returns every task that has children.
func (m *Manager) ParentTasks() []*task.Task {
	return m.filter(func(t *task.Task) bool { return !t.IsLeaf() })
}

// ChildrenOf returns the children of the task with id, resolving it through
// Find. An unknown id yields nil.
func (m *Manager) ChildrenOf(ctx context.Context, id int64) ([]*task.Task, error) {
	t, err := m.Find(ctx, id)
	if err != nil || t == nil {
		return nil, err
	}
	return t.Children(), nil
}

// Entry is one line of the flattened tree.
type Entry struct {
	Task  *task.Task
	Depth int
}

// Flatten walks the forest depth first in display order.
func (m *Manager) Flatten() []Entry {
	var out []Entry
	var walk func(ts []*task.Task, depth int)
	walk = func(ts []*task.Task, depth int) {
		for _, t := range ts {
			out = append(out, Entry{Task: t, Depth: depth})
			walk(t.Children(), depth+1)
		}
	}
	walk(m.Roots(), 0)
	return out
}
