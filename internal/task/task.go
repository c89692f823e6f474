// Package task models a node in the task tree.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nt/internal/date"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("task not found")
)

// Task is a node in a mutable tree. The parent pointer is a non-owning back
// reference; Children is the owning collection. The manager owns every Task.
type Task struct {
	id           int64
	title        string
	completed    bool
	dueDate      *time.Time
	referenceURL *string
	parent       *Task
	children     []*Task
}

type Option func(*Task)

func WithParent(p *Task) Option {
	return func(t *Task) { t.parent = p }
}

// WithDueDate sets the due date; the time of day is dropped.
func WithDueDate(d *time.Time) Option {
	return func(t *Task) {
		if d != nil {
			t.dueDate = date.Ptr(*d)
		}
	}
}

func WithReferenceURL(u *string) Option {
	return func(t *Task) { t.referenceURL = copyString(u) }
}

func WithCompleted(c bool) Option {
	return func(t *Task) { t.completed = c }
}

// New builds a task. The title is taken as given: rows loaded from storage are
// trusted, and callers creating tasks from user input go through the manager,
// which validates.
func New(id int64, title string, opts ...Option) *Task {
	t := &Task{id: id, title: title}
	for _, opt := range opts {
		opt(t)
	}
	if p := t.parent; p != nil {
		t.parent = nil
		p.AddChild(t)
	}
	return t
}

func (t *Task) ID() int64     { return t.id }
func (t *Task) Title() string { return t.title }

func (t *Task) Completed() bool { return t.completed }

// DueDate returns a copy of the due date, or nil.
func (t *Task) DueDate() *time.Time {
	if t.dueDate == nil {
		return nil
	}
	d := *t.dueDate
	return &d
}

// ReferenceURL returns nil when no link was ever set, which is distinct from
// a link explicitly set to "".
func (t *Task) ReferenceURL() *string { return copyString(t.referenceURL) }

func (t *Task) Parent() *Task { return t.parent }

// Children returns the children in insertion order. The slice is a copy.
func (t *Task) Children() []*Task {
	out := make([]*Task, len(t.children))
	copy(out, t.children)
	return out
}

// AssignID replaces the id after the store has inserted the row.
func (t *Task) AssignID(id int64) { t.id = id }

func (t *Task) Complete()   { t.completed = true }
func (t *Task) Uncomplete() { t.completed = false }

func (t *Task) UpdateTitle(title string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	t.title = title
	return nil
}

// UpdateDueDate replaces the due date; nil clears it.
func (t *Task) UpdateDueDate(d *time.Time) {
	if d == nil {
		t.dueDate = nil
		return
	}
	t.dueDate = date.Ptr(*d)
}

// UpdateDueDateString parses s with date.Parse relative to today. Nothing
// changes on error.
func (t *Task) UpdateDueDateString(s string, today time.Time) error {
	d, err := ParseDueDate(s, today)
	if err != nil {
		return err
	}
	t.UpdateDueDate(d)
	return nil
}

func (t *Task) UpdateReferenceURL(u *string) {
	t.referenceURL = copyString(u)
}

// ValidateTitle rejects empty and whitespace-only titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	return nil
}

// ParseDueDate parses user input relative to today, wrapping parse failures
// in ErrValidation.
func ParseDueDate(s string, today time.Time) (*time.Time, error) {
	d, err := date.Parse(s, today)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return d, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
