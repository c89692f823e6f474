// Package storage persists tasks in a single SQLite table and rebuilds the
// task tree from its rows.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"nt/internal/date"
	"nt/internal/task"
)

// ErrLocked is returned by Open when another process holds the database.
var ErrLocked = errors.New("database is in use by another nt process")

// Store is a SQLite-backed task table. Every mutating call is a single
// statement; nothing is buffered.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open opens or creates the database at dbPath, creating parent directories
// as needed, takes an exclusive lock file next to it and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	s := &Store{}
	if !strings.HasPrefix(dbPath, "file:") {
		s.lock = flock.New(dbPath + ".lock")
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock database: %w", err)
		}
		if !locked {
			return nil, ErrLocked
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		s.unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.ensureSchema(); err != nil {
		db.Close()
		s.unlock()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.unlock()
	return err
}

func (s *Store) unlock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}

// Insert writes the full row for t and returns the id the database stored it
// under. A positive t.ID() is written as the primary key.
func (s *Store) Insert(ctx context.Context, t *task.Task) (int64, error) {
	now := timestamp()
	var id any
	if t.ID() > 0 {
		id = t.ID()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, completed, parent_id, due_date, reference_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		id, t.Title(), boolToInt(t.Completed()), parentID(t), dueDate(t), referenceURL(t), now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert task: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return newID, nil
}

// Update overwrites the row with t's id and bumps updated_at.
func (s *Store) Update(ctx context.Context, t *task.Task) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, completed = ?, parent_id = ?, due_date = ?, reference_url = ?, updated_at = ?
		WHERE id = ?;`,
		t.Title(), boolToInt(t.Completed()), parentID(t), dueDate(t), referenceURL(t), timestamp(), t.ID())
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", t.ID(), err)
	}
	return nil
}

// Delete removes exactly one row. Descendants are the caller's concern.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}

// Find returns the task with the given id without any parent or children.
// It returns task.ErrNotFound when there is no such row.
func (s *Store) Find(ctx context.Context, id int64) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM tasks WHERE id = ?;`, id)
	r, err := scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", task.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return r.task(), nil
}

// ParentID returns the stored parent_id of the row. ok is false for a root
// row; a missing row is task.ErrNotFound.
func (s *Store) ParentID(ctx context.Context, id int64) (int64, bool, error) {
	var pid sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT parent_id FROM tasks WHERE id = ?;`, id).Scan(&pid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("%w: %d", task.ErrNotFound, id)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get parent of task %d: %w", id, err)
	}
	return pid.Int64, pid.Valid, nil
}

// All returns every task ordered by id with parent/child edges wired.
func (s *Store) All(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.fetchRows(ctx)
	if err != nil {
		return nil, err
	}
	tasks, _ := buildTree(rows)
	return tasks, nil
}

// Roots returns the root tasks, each with its full subtree attached.
func (s *Store) Roots(ctx context.Context) ([]*task.Task, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []*task.Task
	for _, t := range all {
		if t.IsRoot() {
			out = append(out, t)
		}
	}
	return out, nil
}

// ChildrenOf returns the direct children of parentID with their subtrees.
// Their Parent is the rebuilt parent task.
func (s *Store) ChildrenOf(ctx context.Context, parentID int64) ([]*task.Task, error) {
	rows, err := s.fetchRows(ctx)
	if err != nil {
		return nil, err
	}
	_, byID := buildTree(rows)
	parent, ok := byID[parentID]
	if !ok {
		return nil, nil
	}
	return parent.Children(), nil
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ?;`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check task %d: %w", id, err)
	}
	return n > 0, nil
}

// NextID returns max(id)+1, or 1 for an empty table.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM tasks;`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to compute next id: %w", err)
	}
	return id, nil
}

func (s *Store) fetchRows(ctx context.Context) ([]row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM tasks ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parentID(t *task.Task) sql.NullInt64 {
	if p := t.Parent(); p != nil {
		return sql.NullInt64{Int64: p.ID(), Valid: true}
	}
	return sql.NullInt64{}
}

func dueDate(t *task.Task) sql.NullString {
	if d := t.DueDate(); d != nil {
		return sql.NullString{String: date.Format(*d), Valid: true}
	}
	return sql.NullString{}
}

func referenceURL(t *task.Task) sql.NullString {
	if u := t.ReferenceURL(); u != nil {
		return sql.NullString{String: *u, Valid: true}
	}
	return sql.NullString{}
}
