package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/sift/internal/config"
	"github.com/harrison/sift/internal/filter"
	"github.com/harrison/sift/internal/history"
)

// NewHistoryCommand creates the 'sift history' command
func NewHistoryCommand() *cobra.Command {
	var limit int
	var runID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded command invocations",
		Long: `Show command invocations recorded by earlier --exec and --exec-batch runs.

Invocations are recorded when history is enabled in the configuration
file or when a search is run with --history.

Examples:
  sift history
  sift history --limit 50
  sift history --run 3f0c2a9e-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, dbPath, runID, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of invocations to show")
	cmd.Flags().StringVar(&runID, "run", "", "Only show invocations of this run")
	cmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Path to history database (default: <sift home>/history.db)")

	cmd.AddCommand(newHistoryExportCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func runHistory(cmd *cobra.Command, dbPath, runID string, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be > 0, got %d", limit)
	}

	store, err := openHistoryStore(cmd, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var invocations []*history.Invocation
	if runID != "" {
		invocations, err = store.ByRun(cmd.Context(), runID)
	} else {
		invocations, err = store.Recent(cmd.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("failed to retrieve invocations: %w", err)
	}

	printInvocations(cmd.OutOrStdout(), invocations)
	return nil
}

func printInvocations(w io.Writer, invocations []*history.Invocation) {
	if len(invocations) == 0 {
		fmt.Fprintln(w, "No invocations recorded.")
		return
	}

	fmt.Fprintf(w, "%-19s  %-8s  %-10s  %6s  %8s  %s\n", "STARTED", "RUN", "MODE", "STATUS", "TIME", "COMMAND")
	for _, inv := range invocations {
		fmt.Fprintf(w, "%-19s  %-8s  %-10s  %6s  %8s  %s\n",
			inv.StartedAt.Local().Format("2006-01-02 15:04:05"),
			shortRunID(inv.RunID),
			inv.Mode,
			invocationStatus(inv),
			(time.Duration(inv.DurationMs) * time.Millisecond).String(),
			strings.Join(inv.Argv, " "),
		)
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func invocationStatus(inv *history.Invocation) string {
	switch {
	case inv.SpawnError != "":
		return "spawn"
	case inv.ExitCode == nil:
		return "signal"
	default:
		return fmt.Sprintf("%d", *inv.ExitCode)
	}
}

func newHistoryExportCommand() *cobra.Command {
	var output string
	var limit int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded invocations to a JSON file",
		Long: `Export the most recent recorded invocations as JSON.

The output file is replaced atomically while holding <file>.lock, so
concurrent exports never interleave.

Examples:
  sift history export --out history.json
  sift history export --out history.json --limit 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db-path")
			return runHistoryExport(cmd, dbPath, output, limit)
		},
	}

	cmd.Flags().StringVar(&output, "out", "", "Output file path (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of invocations to export (0 = all)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runHistoryExport(cmd *cobra.Command, dbPath, output string, limit int) error {
	if limit < 0 {
		return fmt.Errorf("--limit must be >= 0, got %d", limit)
	}

	store, err := openHistoryStore(cmd, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := history.Export(cmd.Context(), store, output, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d invocations to %s\n", n, output)
	return nil
}

func newHistoryPruneCommand() *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old recorded invocations",
		Long: `Delete recorded invocations started before the given point in time.

The value accepts the same forms as --changed-before: a duration such
as 30d or 2weeks, a date, or a date and time.

Examples:
  sift history prune --older-than 30d
  sift history prune --older-than 2026-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db-path")
			return runHistoryPrune(cmd, dbPath, olderThan)
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "", "Delete invocations older than this (required)")
	_ = cmd.MarkFlagRequired("older-than")

	return cmd
}

func runHistoryPrune(cmd *cobra.Command, dbPath, olderThan string) error {
	cutoff, err := filter.ParseInstant(olderThan, time.Now())
	if err != nil {
		return fmt.Errorf("invalid --older-than: %w", err)
	}

	store, err := openHistoryStore(cmd, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Prune(cmd.Context(), cutoff)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d invocations\n", n)
	return nil
}

// openHistoryStore opens the database named by --db-path or, failing that,
// the one the configuration points at.
func openHistoryStore(cmd *cobra.Command, dbPath string) (*history.Store, error) {
	if dbPath == "" {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return openHistory(cfg)
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}
