// Package manager is the single gateway for task tree mutations. It keeps an
// identity cache of every live task and, in backed mode, writes each change
// through to a Repository.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"nt/internal/date"
	"nt/internal/task"
)

// Repository is the durable store behind a backed Manager.
type Repository interface {
	Insert(ctx context.Context, t *task.Task) (int64, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, id int64) (*task.Task, error)
	ParentID(ctx context.Context, id int64) (int64, bool, error)
	All(ctx context.Context) ([]*task.Task, error)
	NextID(ctx context.Context) (int64, error)
	Close() error
}

type Manager struct {
	repo   Repository
	backed bool
	tasks  map[int64]*task.Task
	nextID int64

	log         *slog.Logger
	today       func() time.Time
	dueSoonDays int
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock replaces date.Today as the reference date for queries.
func WithClock(today func() time.Time) Option {
	return func(m *Manager) { m.today = today }
}

// WithDueSoonDays sets the window used by Statistics and DueSoon(0).
func WithDueSoonDays(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.dueSoonDays = n
		}
	}
}

func newManager(opts []Option) *Manager {
	m := &Manager{
		tasks:       make(map[int64]*task.Task),
		log:         slog.New(slog.DiscardHandler),
		today:       date.Today,
		dueSoonDays: task.DefaultDueSoonDays,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// New returns a backed manager and eagerly loads every task from repo. The
// manager owns repo from here on and closes it in Close.
func New(ctx context.Context, repo Repository, opts ...Option) (*Manager, error) {
	m := newManager(opts)
	m.repo = repo
	m.backed = true
	if err := m.Reload(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// NewEphemeral returns a memory-only manager with ids counted from 1.
func NewEphemeral(opts ...Option) *Manager {
	m := newManager(opts)
	m.nextID = 1
	return m
}

func (m *Manager) Backed() bool { return m.backed }

// Today is the reference date the manager classifies due dates against.
func (m *Manager) Today() time.Time { return date.Of(m.today()) }

func (m *Manager) DueSoonDays() int { return m.dueSoonDays }

// Reload replaces the cache with the store's contents. It is a no-op for an
// ephemeral manager.
func (m *Manager) Reload(ctx context.Context) error {
	if !m.backed {
		return nil
	}
	all, err := m.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	m.tasks = make(map[int64]*task.Task, len(all))
	for _, t := range all {
		m.tasks[t.ID()] = t
	}
	m.log.Debug("loaded tasks", "count", len(all))
	return nil
}

func (m *Manager) Close() error {
	if !m.backed {
		return nil
	}
	return m.repo.Close()
}

type addParams struct {
	parentID     *int64
	dueDate      *time.Time
	referenceURL *string
}

type AddOption func(*addParams)

// Under attaches the new task to the given parent.
func Under(parentID int64) AddOption {
	return func(p *addParams) { p.parentID = &parentID }
}

func Due(d *time.Time) AddOption {
	return func(p *addParams) { p.dueDate = d }
}

func Link(u *string) AddOption {
	return func(p *addParams) { p.referenceURL = u }
}

// Add creates a task. It fails with task.ErrValidation for an empty title and
// task.ErrNotFound when the requested parent does not exist.
func (m *Manager) Add(ctx context.Context, title string, opts ...AddOption) (*task.Task, error) {
	if err := task.ValidateTitle(title); err != nil {
		return nil, err
	}
	var p addParams
	for _, opt := range opts {
		opt(&p)
	}

	var parent *task.Task
	if p.parentID != nil {
		found, err := m.Find(ctx, *p.parentID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, fmt.Errorf("%w: parent %d", task.ErrNotFound, *p.parentID)
		}
		parent = found
	}

	id, err := m.allocateID(ctx)
	if err != nil {
		return nil, err
	}
	t := task.New(id, title, task.WithParent(parent), task.WithDueDate(p.dueDate), task.WithReferenceURL(p.referenceURL))

	if m.backed {
		stored, err := m.repo.Insert(ctx, t)
		if err != nil {
			t.Detach()
			m.log.Error("insert failed", "title", title, "error", err)
			return nil, err
		}
		if stored != t.ID() {
			t.AssignID(stored)
		}
	}
	m.tasks[t.ID()] = t
	m.log.Debug("added task", "id", t.ID(), "parent", p.parentID)
	return t, nil
}

func (m *Manager) allocateID(ctx context.Context) (int64, error) {
	if m.backed {
		return m.repo.NextID(ctx)
	}
	id := m.nextID
	m.nextID++
	return id, nil
}

// Find returns the task with id, or nil when there is none. A cache miss in
// backed mode falls through to the store and caches what it finds.
func (m *Manager) Find(ctx context.Context, id int64) (*task.Task, error) {
	if t, ok := m.tasks[id]; ok {
		return t, nil
	}
	if !m.backed {
		return nil, nil
	}
	t, err := m.repo.Find(ctx, id)
	if errors.Is(err, task.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.tasks[t.ID()] = t
	if err := m.attachStored(ctx, t); err != nil {
		delete(m.tasks, t.ID())
		return nil, err
	}
	return t, nil
}

// attachStored links a task fetched from the store under its stored parent,
// loading the parent the same way if needed. A missing parent or one that
// would close a cycle leaves t at the root, as on a full load.
func (m *Manager) attachStored(ctx context.Context, t *task.Task) error {
	pid, ok, err := m.repo.ParentID(ctx, t.ID())
	if err != nil || !ok {
		return err
	}
	parent, err := m.Find(ctx, pid)
	if err != nil {
		return err
	}
	if parent == nil || parent == t || t.IsAncestorOf(parent) {
		m.log.Debug("stored parent not attached", "id", t.ID(), "parent", pid)
		return nil
	}
	parent.AddChild(t)
	return nil
}

// Delete removes the task and its whole subtree from the cache and store.
// It returns false when no task has that id.
func (m *Manager) Delete(ctx context.Context, id int64) (bool, error) {
	t, err := m.Find(ctx, id)
	if err != nil || t == nil {
		return false, err
	}

	desc := t.Descendants()
	for i := len(desc) - 1; i >= 0; i-- {
		if err := m.remove(ctx, desc[i]); err != nil {
			return false, err
		}
	}
	t.Detach()
	if err := m.remove(ctx, t); err != nil {
		return false, err
	}
	m.log.Debug("deleted task", "id", id, "descendants", len(desc))
	return true, nil
}

func (m *Manager) remove(ctx context.Context, t *task.Task) error {
	if m.backed {
		if err := m.repo.Delete(ctx, t.ID()); err != nil {
			m.log.Error("delete failed", "id", t.ID(), "error", err)
			return err
		}
	}
	delete(m.tasks, t.ID())
	return nil
}

func (m *Manager) Complete(ctx context.Context, id int64) (bool, error) {
	return m.mutate(ctx, id, func(t *task.Task) error {
		t.Complete()
		return nil
	})
}

func (m *Manager) Uncomplete(ctx context.Context, id int64) (bool, error) {
	return m.mutate(ctx, id, func(t *task.Task) error {
		t.Uncomplete()
		return nil
	})
}

// EditTitle returns false with task.ErrValidation for an empty title; the
// task is left unchanged.
func (m *Manager) EditTitle(ctx context.Context, id int64, title string) (bool, error) {
	return m.mutate(ctx, id, func(t *task.Task) error {
		return t.UpdateTitle(title)
	})
}

// EditDueDate sets the due date; nil clears it.
func (m *Manager) EditDueDate(ctx context.Context, id int64, d *time.Time) (bool, error) {
	return m.mutate(ctx, id, func(t *task.Task) error {
		t.UpdateDueDate(d)
		return nil
	})
}

// EditDueDateString parses s as user date input, see date.Parse.
func (m *Manager) EditDueDateString(ctx context.Context, id int64, s string) (bool, error) {
	return m.mutate(ctx, id, func(t *task.Task) error {
		return t.UpdateDueDateString(s, m.today())
	})
}

func (m *Manager) EditReferenceURL(ctx context.Context, id int64, u *string) (bool, error) {
	return m.mutate(ctx, id, func(t *task.Task) error {
		t.UpdateReferenceURL(u)
		return nil
	})
}

// mutate finds the task, applies fn and persists the result. A not-found id
// yields false with a nil error.
func (m *Manager) mutate(ctx context.Context, id int64, fn func(*task.Task) error) (bool, error) {
	t, err := m.Find(ctx, id)
	if err != nil || t == nil {
		return false, err
	}
	if err := fn(t); err != nil {
		return false, err
	}
	if err := m.persist(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) persist(ctx context.Context, t *task.Task) error {
	if !m.backed {
		return nil
	}
	if err := m.repo.Update(ctx, t); err != nil {
		m.log.Error("update failed", "id", t.ID(), "error", err)
		return err
	}
	m.log.Debug("updated task", "id", t.ID())
	return nil
}

// Move reparents a task; a nil newParentID makes it a root. It returns false
// without changing anything when either task is missing or when the new
// parent is the task itself or one of its descendants.
func (m *Manager) Move(ctx context.Context, id int64, newParentID *int64) (bool, error) {
	t, err := m.Find(ctx, id)
	if err != nil || t == nil {
		return false, err
	}
	var newParent *task.Task
	if newParentID != nil {
		newParent, err = m.Find(ctx, *newParentID)
		if err != nil || newParent == nil {
			return false, err
		}
		if newParent == t || t.IsAncestorOf(newParent) {
			m.log.Debug("move rejected", "id", id, "parent", *newParentID)
			return false, nil
		}
	}

	old := t.Parent()
	t.Detach()
	if newParent != nil {
		newParent.AddChild(t)
	}
	if err := m.persist(ctx, t); err != nil {
		t.Detach()
		if old != nil {
			old.AddChild(t)
		}
		return false, err
	}
	return true, nil
}

// CompleteAll completes every id in order and reports whether all succeeded.
func (m *Manager) CompleteAll(ctx context.Context, ids []int64) (bool, error) {
	return m.each(ctx, ids, m.Complete)
}

// UncompleteAll reopens every id in order and reports whether all succeeded.
func (m *Manager) UncompleteAll(ctx context.Context, ids []int64) (bool, error) {
	return m.each(ctx, ids, m.Uncomplete)
}

// DeleteAll deletes every id in order and reports whether all succeeded.
func (m *Manager) DeleteAll(ctx context.Context, ids []int64) (bool, error) {
	return m.each(ctx, ids, m.Delete)
}

func (m *Manager) each(ctx context.Context, ids []int64, op func(context.Context, int64) (bool, error)) (bool, error) {
	all := true
	var errs []error
	for _, id := range ids {
		ok, err := op(ctx, id)
		if err != nil {
			errs = append(errs, err)
		}
		all = all && ok
	}
	return all, errors.Join(errs...)
}

// All returns every cached task ordered by id.
func (m *Manager) All() []*task.Task {
	out := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
