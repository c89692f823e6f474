package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nt/internal/date"
	"nt/internal/manager"
	"nt/internal/task"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func notFound(id int64) error {
	return fmt.Errorf("%w: task %d", task.ErrNotFound, id)
}

// runBatch applies op to every id in one pass, prints a line for each id that
// existed and fails afterwards naming the ids that did not.
func runBatch(ctx context.Context, stdout io.Writer, m *manager.Manager, ids []int64, op func(context.Context, []int64) (bool, error), verb string) error {
	var missing []string
	exists := make(map[int64]bool, len(ids))
	for _, id := range ids {
		t, err := m.Find(ctx, id)
		if err != nil {
			return err
		}
		exists[id] = t != nil
		if t == nil {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
	}
	if _, err := op(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		if exists[id] {
			fmt.Fprintf(stdout, "%s task %d\n", verb, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: task %s", task.ErrNotFound, strings.Join(missing, ", "))
	}
	return nil
}

func newAddCmd(stdout io.Writer, opts *Options) *cobra.Command {
	var (
		parent int64
		due    string
		url    string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				var aopts []manager.AddOption
				if cmd.Flags().Changed("parent") {
					aopts = append(aopts, manager.Under(parent))
				}
				if due != "" {
					d, err := date.Parse(due, s.mgr.Today())
					if err != nil {
						return fmt.Errorf("%w: %v", task.ErrValidation, err)
					}
					aopts = append(aopts, manager.Due(d))
				}
				if cmd.Flags().Changed("url") {
					aopts = append(aopts, manager.Link(&url))
				}
				t, err := s.mgr.Add(cmd.Context(), strings.Join(args, " "), aopts...)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Added task %d: %s\n", t.ID(), t.Title())
				return nil
			})
		},
	}
	cmd.Flags().Int64VarP(&parent, "parent", "p", 0, "parent task id")
	cmd.Flags().StringVarP(&due, "due", "d", "", "due date (YYYY-MM-DD, YYYYMMDD, MMDD, today, tomorrow)")
	cmd.Flags().StringVarP(&url, "url", "u", "", "reference URL")
	return cmd
}

// listFilters maps --filter values to flat manager queries.
var listFilters = map[string]func(*manager.Manager) []*task.Task{
	"done":    (*manager.Manager).Completed,
	"open":    (*manager.Manager).Incomplete,
	"overdue": (*manager.Manager).Overdue,
	"today":   (*manager.Manager).DueToday,
	"soon":    func(m *manager.Manager) []*task.Task { return m.DueSoon(0) },
	"dated":   (*manager.Manager).WithDueDate,
	"roots":   (*manager.Manager).Roots,
}

func newListCmd(stdout io.Writer, opts *Options) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the task tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				today, soon := s.mgr.Today(), s.mgr.DueSoonDays()
				if filter == "" {
					entries := s.mgr.Flatten()
					if len(entries) == 0 {
						fmt.Fprintln(stdout, "No tasks yet.")
						return nil
					}
					for _, e := range entries {
						fmt.Fprintln(stdout, line(e.Task, e.Depth, today, soon))
					}
					return nil
				}
				query, ok := listFilters[filter]
				if !ok {
					return fmt.Errorf("unknown filter %q", filter)
				}
				for _, t := range query(s.mgr) {
					fmt.Fprintln(stdout, line(t, 0, today, soon))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "flat list: done, open, overdue, today, soon, dated or roots")
	return cmd
}

func line(t *task.Task, depth int, today time.Time, soonDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %d: %s", strings.Repeat("  ", depth), t.Checkbox(), t.ID(), t.Title())
	if label := t.DueLabel(today, soonDays); label != "" {
		fmt.Fprintf(&b, " (%s)", label)
	}
	if u := t.ReferenceURL(); u != nil && *u != "" {
		fmt.Fprintf(&b, " <%s>", *u)
	}
	return b.String()
}

func newDoneCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>...",
		Short: "Mark tasks completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				return runBatch(cmd.Context(), stdout, s.mgr, ids, s.mgr.CompleteAll, "Completed")
			})
		},
	}
}

func newUndoneCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "undone <id>...",
		Short: "Mark tasks incomplete",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				return runBatch(cmd.Context(), stdout, s.mgr, ids, s.mgr.UncompleteAll, "Reopened")
			})
		},
	}
}

func newEditCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title>",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				ok, err := s.mgr.EditTitle(cmd.Context(), id, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				if !ok {
					return notFound(id)
				}
				fmt.Fprintf(stdout, "Renamed task %d\n", id)
				return nil
			})
		},
	}
}

func newRemoveCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks and their subtasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				return runBatch(cmd.Context(), stdout, s.mgr, ids, s.mgr.DeleteAll, "Deleted")
			})
		},
	}
}

func newDueCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "due <id> <date>",
		Short: "Set or clear (none) a due date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				ok, err := s.mgr.EditDueDateString(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				if !ok {
					return notFound(id)
				}
				fmt.Fprintf(stdout, "Updated due date of task %d\n", id)
				return nil
			})
		},
	}
}

func newURLCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "url <id> [url]",
		Short: "Set a reference URL, or clear it when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u *string
			if len(args) == 2 {
				u = &args[1]
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				ok, err := s.mgr.EditReferenceURL(cmd.Context(), id, u)
				if err != nil {
					return err
				}
				if !ok {
					return notFound(id)
				}
				fmt.Fprintf(stdout, "Updated URL of task %d\n", id)
				return nil
			})
		},
	}
}

func newMoveCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "mv <id> <parent|root>",
		Aliases: []string{"move"},
		Short:   "Move a task under another task or to the top level",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var parent *int64
			if args[1] != "root" {
				p, err := parseID(args[1])
				if err != nil {
					return err
				}
				parent = &p
			}
			return withSession(cmd.Context(), opts, func(s *session) error {
				ok, err := s.mgr.Move(cmd.Context(), id, parent)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("cannot move task %d to %s", id, args[1])
				}
				fmt.Fprintf(stdout, "Moved task %d\n", id)
				return nil
			})
		},
	}
}
