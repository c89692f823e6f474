package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"nt/internal/export"
)

func newStatsCmd(stdout io.Writer, opts *Options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				if asJSON {
					enc := json.NewEncoder(stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(struct {
						Statistics     any     `json:"statistics"`
						CompletionRate float64 `json:"completion_rate"`
						OnTimeRate     float64 `json:"on_time_rate"`
						Depth          any     `json:"depth"`
					}{s.mgr.Statistics(), s.mgr.CompletionRate(), s.mgr.OnTimeRate(), s.mgr.DepthStatistics()})
				}
				sum := s.mgr.Summary()
				fmt.Fprintf(stdout, "%s (%s)\n", sum.Overview, sum.CompletionRate)
				fmt.Fprintf(stdout, "Overdue: %d  Due today: %d  Due soon: %d\n", sum.Overdue, sum.DueToday, sum.DueSoon)
				fmt.Fprintf(stdout, "Root tasks: %d  Subtasks: %d  Max depth: %d\n", sum.RootTasks, sum.ChildTasks, sum.MaxDepth)
				fmt.Fprintf(stdout, "On time: %.1f%%\n", s.mgr.OnTimeRate())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newExportCmd(stdout io.Writer, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export tasks as Markdown to stdout or a .md file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				content := export.Markdown(s.mgr, time.Now())
				if len(args) == 0 {
					fmt.Fprintln(stdout, content)
					return nil
				}
				path, err := export.Save(args[0], content)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Saved to %s\n", path)
				return nil
			})
		},
	}
}
