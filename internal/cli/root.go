// Package cli wires the nt command tree. Every subcommand opens a session
// (config, logger, manager), runs one operation and closes it again.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nt/internal/config"
	"nt/internal/logging"
	"nt/internal/manager"
	"nt/internal/storage"
	"nt/internal/ui"
)

// Options holds the global flags.
type Options struct {
	ConfigPath string
	DBPath     string
	Memory     bool
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRoot(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewRoot builds the root command with injectable output streams. Without a
// subcommand it starts the interactive shell.
func NewRoot(stdout, stderr io.Writer) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "nt",
		Short: "A hierarchical terminal task manager",
		Long: `nt keeps a tree of tasks with due dates and reference links in a local
SQLite database. Run it without arguments for the interactive shell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $NT_CONFIG or ~/.nt/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path, overrides db_path from the config")
	cmd.PersistentFlags().BoolVar(&opts.Memory, "memory", false, "keep tasks in memory only")

	cmd.AddCommand(
		newAddCmd(stdout, opts),
		newListCmd(stdout, opts),
		newDoneCmd(stdout, opts),
		newUndoneCmd(stdout, opts),
		newEditCmd(stdout, opts),
		newRemoveCmd(stdout, opts),
		newDueCmd(stdout, opts),
		newURLCmd(stdout, opts),
		newMoveCmd(stdout, opts),
		newStatsCmd(stdout, opts),
		newExportCmd(stdout, opts),
		newTUICmd(opts),
	)
	return cmd
}

type session struct {
	cfg    config.Config
	mgr    *manager.Manager
	logOut io.Closer
}

func open(ctx context.Context, opts *Options) (*session, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	log, logOut, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	mopts := []manager.Option{
		manager.WithLogger(log),
		manager.WithDueSoonDays(cfg.DueSoonDays),
	}

	if opts.Memory {
		log.Debug("starting in memory")
		return &session{cfg: cfg, mgr: manager.NewEphemeral(mopts...), logOut: logOut}, nil
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logOut.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	mgr, err := manager.New(ctx, store, mopts...)
	if err != nil {
		store.Close()
		logOut.Close()
		return nil, err
	}
	log.Debug("opened database", "path", cfg.DBPath)
	return &session{cfg: cfg, mgr: mgr, logOut: logOut}, nil
}

func (s *session) Close() error {
	return errors.Join(s.mgr.Close(), s.logOut.Close())
}

// withSession opens a session around fn.
func withSession(ctx context.Context, opts *Options, fn func(*session) error) (err error) {
	s, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()
	return fn(s)
}

func runTUI(ctx context.Context, opts *Options) error {
	return withSession(ctx, opts, func(s *session) error {
		return ui.Run(ctx, s.mgr, s.cfg)
	})
}

func newTUICmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}
