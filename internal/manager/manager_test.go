package manager

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"

	"nt/internal/date"
	"nt/internal/storage"
	"nt/internal/task"
)

func openBacked(t *testing.T, path string, opts ...Option) *Manager {
	t.Helper()
	s, err := storage.Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	m, err := New(context.Background(), s, opts...)
	if err != nil {
		s.Close()
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

func setupBacked(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	m := openBacked(t, path)
	t.Cleanup(func() { m.Close() })
	return m, path
}

// forEachMode runs fn against an ephemeral and a backed manager.
func forEachMode(t *testing.T, fn func(t *testing.T, m *Manager)) {
	t.Run("ephemeral", func(t *testing.T) { fn(t, NewEphemeral()) })
	t.Run("backed", func(t *testing.T) {
		m, _ := setupBacked(t)
		fn(t, m)
	})
}

func mustAdd(t *testing.T, m *Manager, title string, opts ...AddOption) *task.Task {
	t.Helper()
	tk, err := m.Add(context.Background(), title, opts...)
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return tk
}

func assertConsistent(is *is.I, m *Manager) {
	is.Helper()
	for _, tk := range m.All() {
		if p := tk.Parent(); p != nil {
			found := false
			for _, c := range p.Children() {
				if c == tk {
					found = true
				}
			}
			is.True(found)
		}
		for _, c := range tk.Children() {
			is.Equal(c.Parent(), tk)
		}
	}
}

func TestAdd(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		tk, err := m.Add(context.Background(), "Buy milk")
		is.NoErr(err)
		is.Equal(tk.ID(), int64(1))
		is.True(!tk.Completed())
		is.Equal(tk.DueDate(), nil)
		is.Equal(m.Statistics().Total, 1)

		next := mustAdd(t, m, "Second")
		is.Equal(next.ID(), int64(2))
	})
}

func TestAdd_WithParent(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		parent := mustAdd(t, m, "Parent")
		child := mustAdd(t, m, "Child", Under(parent.ID()))

		is.Equal(m.Roots(), []*task.Task{parent})
		is.Equal(parent.Children(), []*task.Task{child})
		is.Equal(child.Depth(), 1)
		assertConsistent(is, m)
	})
}

func TestAdd_Errors(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()

		_, err := m.Add(ctx, "  ")
		is.True(errors.Is(err, task.ErrValidation))

		_, err = m.Add(ctx, "Orphan", Under(42))
		is.True(errors.Is(err, task.ErrNotFound))

		is.Equal(len(m.All()), 0)
	})
}

func TestFind(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		tk := mustAdd(t, m, "Task")

		got, err := m.Find(ctx, tk.ID())
		is.NoErr(err)
		is.Equal(got, tk)

		got, err = m.Find(ctx, 404)
		is.NoErr(err)
		is.Equal(got, nil)
	})
}

func TestFind_FallsBackToStore(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	m, _ := setupBacked(t)

	// a row written behind the manager's back
	id, err := m.repo.Insert(ctx, task.New(0, "External"))
	is.NoErr(err)

	first, err := m.Find(ctx, id)
	is.NoErr(err)
	is.Equal(first.Title(), "External")

	second, err := m.Find(ctx, id)
	is.NoErr(err)
	is.True(first == second)
}

func TestFind_FallbackAttachesStoredParent(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	m, _ := setupBacked(t)
	store := m.repo.(*storage.Store)
	parent := mustAdd(t, m, "Parent")

	// rows written behind the manager's back; the stand-in only carries the id
	id, err := m.repo.Insert(ctx, task.New(0, "External", task.WithParent(task.New(parent.ID(), "stand-in"))))
	is.NoErr(err)

	child, err := m.Find(ctx, id)
	is.NoErr(err)
	is.Equal(child.Parent(), parent)
	is.Equal(parent.Children(), []*task.Task{child})

	ok, err := m.Complete(ctx, id)
	is.NoErr(err)
	is.True(ok)
	kids, err := store.ChildrenOf(ctx, parent.ID())
	is.NoErr(err)
	is.Equal(len(kids), 1)
	is.True(kids[0].Completed())

	ok, err = m.Delete(ctx, parent.ID())
	is.NoErr(err)
	is.True(ok)
	rows, err := store.All(ctx)
	is.NoErr(err)
	is.Equal(len(rows), 0)
}

func TestFind_FallbackLoadsParentChain(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	m, _ := setupBacked(t)

	top, err := m.repo.Insert(ctx, task.New(0, "Top"))
	is.NoErr(err)
	mid, err := m.repo.Insert(ctx, task.New(0, "Mid", task.WithParent(task.New(top, "stand-in"))))
	is.NoErr(err)
	leaf, err := m.repo.Insert(ctx, task.New(0, "Leaf", task.WithParent(task.New(mid, "stand-in"))))
	is.NoErr(err)

	got, err := m.Find(ctx, leaf)
	is.NoErr(err)
	is.Equal(got.Depth(), 2)
	is.Equal(got.Parent().Title(), "Mid")
	is.Equal(got.Parent().Parent().Title(), "Top")
	is.Equal(len(m.Roots()), 1)
}

func TestChildrenOf_FallsBackToStore(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	m, _ := setupBacked(t)

	parent, err := m.repo.Insert(ctx, task.New(0, "Parent"))
	is.NoErr(err)

	kids, err := m.ChildrenOf(ctx, parent)
	is.NoErr(err)
	is.Equal(len(kids), 0)
	cached, err := m.Find(ctx, parent)
	is.NoErr(err)
	is.True(cached != nil)

	child := mustAdd(t, m, "Child", Under(parent))
	kids, err = m.ChildrenOf(ctx, parent)
	is.NoErr(err)
	is.Equal(kids, []*task.Task{child})

	kids, err = m.ChildrenOf(ctx, 404)
	is.NoErr(err)
	is.Equal(kids, nil)
}

func TestDelete_Cascades(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		parent := mustAdd(t, m, "Parent")
		child := mustAdd(t, m, "Child", Under(parent.ID()))
		mustAdd(t, m, "Grandchild", Under(child.ID()))

		ok, err := m.Delete(ctx, parent.ID())
		is.NoErr(err)
		is.True(ok)
		is.Equal(len(m.All()), 0)

		if m.Backed() {
			rows, err := m.repo.All(ctx)
			is.NoErr(err)
			is.Equal(len(rows), 0)
		}
	})
}

func TestDelete_DetachesFromParent(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		parent := mustAdd(t, m, "Parent")
		keep := mustAdd(t, m, "Keep", Under(parent.ID()))
		gone := mustAdd(t, m, "Gone", Under(parent.ID()))
		mustAdd(t, m, "Gone child", Under(gone.ID()))
		mustAdd(t, m, "Gone child 2", Under(gone.ID()))

		before := len(m.All())
		ok, err := m.Delete(ctx, gone.ID())
		is.NoErr(err)
		is.True(ok)
		is.Equal(len(m.All()), before-3)
		is.Equal(parent.Children(), []*task.Task{keep})
		assertConsistent(is, m)
	})
}

func TestDelete_NotFound(t *testing.T) {
	is := is.New(t)
	ok, err := NewEphemeral().Delete(context.Background(), 9)
	is.NoErr(err)
	is.True(!ok)
}

func TestCompleteAndUncomplete(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		tk := mustAdd(t, m, "Task")

		ok, err := m.Complete(ctx, tk.ID())
		is.NoErr(err)
		is.True(ok)
		is.True(tk.Completed())

		ok, err = m.Complete(ctx, tk.ID())
		is.NoErr(err)
		is.True(ok)
		is.True(tk.Completed())

		ok, err = m.Uncomplete(ctx, tk.ID())
		is.NoErr(err)
		is.True(ok)
		is.True(!tk.Completed())

		ok, err = m.Complete(ctx, 999)
		is.NoErr(err)
		is.True(!ok)
	})
}

func TestEditTitle(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		tk := mustAdd(t, m, "Original")

		ok, err := m.EditTitle(ctx, tk.ID(), "")
		is.True(errors.Is(err, task.ErrValidation))
		is.True(!ok)
		is.Equal(tk.Title(), "Original")

		ok, err = m.EditTitle(ctx, tk.ID(), "Renamed")
		is.NoErr(err)
		is.True(ok)
		is.Equal(tk.Title(), "Renamed")

		ok, err = m.EditTitle(ctx, 999, "Anything")
		is.NoErr(err)
		is.True(!ok)
	})
}

func TestEditDueDate(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		tk := mustAdd(t, m, "Task")
		d := time.Date(2030, time.May, 1, 0, 0, 0, 0, time.UTC)

		ok, err := m.EditDueDate(ctx, tk.ID(), &d)
		is.NoErr(err)
		is.True(ok)
		is.Equal(*tk.DueDate(), d)

		ok, err = m.EditDueDate(ctx, tk.ID(), nil)
		is.NoErr(err)
		is.True(ok)
		is.Equal(tk.DueDate(), nil)

		ok, err = m.EditDueDateString(ctx, tk.ID(), "20300601")
		is.NoErr(err)
		is.True(ok)
		is.Equal(date.Format(*tk.DueDate()), "2030-06-01")

		ok, err = m.EditDueDateString(ctx, tk.ID(), "soon-ish")
		is.True(errors.Is(err, task.ErrValidation))
		is.True(!ok)
		is.Equal(date.Format(*tk.DueDate()), "2030-06-01")
	})
}

func TestEditReferenceURL(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		tk := mustAdd(t, m, "Task")
		u := "https://example.com"

		ok, err := m.EditReferenceURL(ctx, tk.ID(), &u)
		is.NoErr(err)
		is.True(ok)
		is.Equal(*tk.ReferenceURL(), u)

		ok, err = m.EditReferenceURL(ctx, tk.ID(), nil)
		is.NoErr(err)
		is.True(ok)
		is.Equal(tk.ReferenceURL(), nil)

		ok, err = m.EditReferenceURL(ctx, 999, &u)
		is.NoErr(err)
		is.True(!ok)
	})
}

func TestMove(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		a := mustAdd(t, m, "A")
		b := mustAdd(t, m, "B")
		a1 := mustAdd(t, m, "A1", Under(a.ID()))
		a11 := mustAdd(t, m, "A11", Under(a1.ID()))

		t.Run("under another root", func(t *testing.T) {
			is := is.New(t)
			ok, err := m.Move(ctx, a1.ID(), ptr(b.ID()))
			is.NoErr(err)
			is.True(ok)
			is.Equal(a1.Parent(), b)
			is.Equal(len(a.Children()), 0)
			is.Equal(a11.Depth(), 2)
			assertConsistent(is, m)
		})

		t.Run("to root", func(t *testing.T) {
			is := is.New(t)
			ok, err := m.Move(ctx, a1.ID(), nil)
			is.NoErr(err)
			is.True(ok)
			is.True(a1.IsRoot())
			is.Equal(len(b.Children()), 0)
		})

		t.Run("rejects self", func(t *testing.T) {
			is := is.New(t)
			ok, err := m.Move(ctx, a1.ID(), ptr(a1.ID()))
			is.NoErr(err)
			is.True(!ok)
		})

		t.Run("rejects own descendant", func(t *testing.T) {
			is := is.New(t)
			ok, err := m.Move(ctx, a1.ID(), ptr(a11.ID()))
			is.NoErr(err)
			is.True(!ok)
			is.True(a1.IsRoot())
			is.Equal(a11.Parent(), a1)
			assertConsistent(is, m)
		})

		t.Run("missing ids", func(t *testing.T) {
			is := is.New(t)
			ok, err := m.Move(ctx, 999, nil)
			is.NoErr(err)
			is.True(!ok)
			ok, err = m.Move(ctx, a.ID(), ptr(999))
			is.NoErr(err)
			is.True(!ok)
		})
	})
}

func TestMove_Persists(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	m := openBacked(t, path)
	a := mustAdd(t, m, "A")
	b := mustAdd(t, m, "B")
	ok, err := m.Move(ctx, b.ID(), ptr(a.ID()))
	is.NoErr(err)
	is.True(ok)
	is.NoErr(m.Close())

	m = openBacked(t, path)
	defer m.Close()
	roots := m.Roots()
	is.Equal(len(roots), 1)
	is.Equal(roots[0].Title(), "A")
	is.Equal(roots[0].Children()[0].Title(), "B")
}

func TestBatch(t *testing.T) {
	forEachMode(t, func(t *testing.T, m *Manager) {
		is := is.New(t)
		ctx := context.Background()
		a := mustAdd(t, m, "A")
		b := mustAdd(t, m, "B")
		c := mustAdd(t, m, "C")

		ok, err := m.CompleteAll(ctx, []int64{a.ID(), 999, b.ID()})
		is.NoErr(err)
		is.True(!ok)
		// every id is still attempted
		is.True(a.Completed())
		is.True(b.Completed())

		ok, err = m.UncompleteAll(ctx, []int64{a.ID(), b.ID()})
		is.NoErr(err)
		is.True(ok)
		is.True(!a.Completed())
		is.True(!b.Completed())

		ok, err = m.DeleteAll(ctx, []int64{a.ID(), c.ID()})
		is.NoErr(err)
		is.True(ok)
		is.Equal(m.All(), []*task.Task{b})
	})
}

func TestReopenRestoresTree(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")
	due := time.Date(2030, time.January, 15, 0, 0, 0, 0, time.UTC)
	empty := ""

	m := openBacked(t, path)
	p := mustAdd(t, m, "Project", Due(&due))
	ph := mustAdd(t, m, "Phase", Under(p.ID()), Link(&empty))
	st := mustAdd(t, m, "Step", Under(ph.ID()))
	_, err := m.Complete(ctx, st.ID())
	is.NoErr(err)
	is.NoErr(m.Close())

	m = openBacked(t, path)
	defer m.Close()

	all := m.All()
	is.Equal(len(all), 3)
	is.Equal(all[0].Title(), "Project")
	is.Equal(*all[0].DueDate(), due)
	is.Equal(all[1].Parent(), all[0])
	is.Equal(*all[1].ReferenceURL(), "")
	is.Equal(all[2].Parent(), all[1])
	is.True(all[2].Completed())
	is.Equal(all[2].ReferenceURL(), nil)

	next := mustAdd(t, m, "After reopen")
	is.Equal(next.ID(), int64(4))
}

type failingRepo struct {
	Repository
	failUpdate bool
}

func (f *failingRepo) Update(ctx context.Context, t *task.Task) error {
	if f.failUpdate {
		return errors.New("disk full")
	}
	return f.Repository.Update(ctx, t)
}

func TestMove_RestoresParentWhenPersistFails(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	s, err := storage.Open(filepath.Join(t.TempDir(), "tasks.db"))
	is.NoErr(err)
	repo := &failingRepo{Repository: s}
	m, err := New(ctx, repo)
	is.NoErr(err)
	defer m.Close()

	a := mustAdd(t, m, "A")
	b := mustAdd(t, m, "B")
	child := mustAdd(t, m, "Child", Under(a.ID()))

	repo.failUpdate = true
	ok, err := m.Move(ctx, child.ID(), ptr(b.ID()))
	is.True(err != nil)
	is.True(!ok)
	is.Equal(child.Parent(), a)
	is.Equal(len(b.Children()), 0)
}

func ptr(id int64) *int64 { return &id }
