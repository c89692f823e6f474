package storage

import (
	"database/sql"
	"time"

	"nt/internal/date"
	"nt/internal/task"
)

const columns = `id, title, completed, parent_id, due_date, reference_url, created_at, updated_at`

type row struct {
	ID           int64
	Title        string
	Completed    bool
	ParentID     sql.NullInt64
	DueDate      sql.NullString
	ReferenceURL sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (row, error) {
	var r row
	var completed int
	var created, updated string
	if err := sc.Scan(&r.ID, &r.Title, &completed, &r.ParentID, &r.DueDate, &r.ReferenceURL, &created, &updated); err != nil {
		return row{}, err
	}
	r.Completed = completed == 1
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		r.UpdatedAt = t
	}
	return r, nil
}

// task builds a parent-less, childless task from the row. An unparsable
// due_date is dropped rather than failing the whole load.
func (r row) task() *task.Task {
	opts := []task.Option{task.WithCompleted(r.Completed)}
	if r.DueDate.Valid {
		if d, err := date.ParseISO(r.DueDate.String); err == nil {
			opts = append(opts, task.WithDueDate(&d))
		}
	}
	if r.ReferenceURL.Valid {
		u := r.ReferenceURL.String
		opts = append(opts, task.WithReferenceURL(&u))
	}
	return task.New(r.ID, r.Title, opts...)
}

// buildTree creates every task first, then wires children through the id
// map. A parent_id missing from rows, or one that would close a cycle,
// leaves the task at the root.
func buildTree(rows []row) ([]*task.Task, map[int64]*task.Task) {
	tasks := make([]*task.Task, 0, len(rows))
	byID := make(map[int64]*task.Task, len(rows))
	for _, r := range rows {
		t := r.task()
		tasks = append(tasks, t)
		byID[r.ID] = t
	}
	for _, r := range rows {
		if !r.ParentID.Valid {
			continue
		}
		parent, ok := byID[r.ParentID.Int64]
		child := byID[r.ID]
		if !ok || parent == child || child.IsAncestorOf(parent) {
			continue
		}
		parent.AddChild(child)
	}
	return tasks, byID
}
