package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is the sift version, overridden at build time
var Version = "dev"

// Exit statuses returned by Execute.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ExitError carries a process exit status out of a command. Err is nil when
// the status alone is the result, for example a quiet search without match.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// flagAliases maps alternate long flag names to their canonical names.
var flagAliases = map[string]string{
	"newer":             "changed-within",
	"change-newer-than": "changed-within",
	"older":             "changed-before",
	"change-older-than": "changed-before",
	"dereference":       "follow",
	"maxdepth":          "max-depth",
	"mindepth":          "min-depth",
}

func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if canonical, ok := flagAliases[name]; ok {
		name = canonical
	}
	return pflag.NormalizedName(name)
}

// NewRootCommand creates the root command for the sift CLI
func NewRootCommand() *cobra.Command {
	return newRootCommand(&execGroups{})
}

func newRootCommand(groups *execGroups) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sift [flags] [pattern] [path...]",
		Short: "Find entries in the filesystem and run commands on them",
		Long: `sift searches directory trees for entries whose name matches a pattern,
narrows the matches by size, modification time, owner and extended
attributes, and either prints them or runs a command for each of them.

Commands are given with -x/--exec (one invocation per match) or
-X/--exec-batch (matches passed as arguments to as few invocations as
possible). A command runs until a ';' argument or the end of the line and
may contain the placeholders {}, {/}, {//}, {.} and {/.}.

Configuration is loaded from .sift/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  sift '\.go$' internal
  sift -e md -S +10k --changed-within 2weeks
  sift -t f -x gzip {} \;
  sift -e rs -X wc -l`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, groups)
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .sift/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Diagnostic verbosity: trace, debug, info, warn, error")

	addSearchFlags(cmd.Flags())
	cmd.Flags().SetNormalizeFunc(normalizeFlag)

	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

func addSearchFlags(flags *pflag.FlagSet) {
	// Matching
	flags.BoolP("hidden", "H", false, "Include hidden files and directories")
	flags.BoolP("case-sensitive", "s", false, "Case-sensitive search (default: smart case)")
	flags.BoolP("ignore-case", "i", false, "Case-insensitive search (default: smart case)")
	flags.BoolP("glob", "g", false, "Treat the pattern as a glob instead of a regular expression")
	flags.BoolP("fixed-strings", "F", false, "Treat the pattern as a literal string")
	flags.BoolP("full-path", "p", false, "Match the pattern against the full path")
	flags.StringSliceP("type", "t", nil, "Filter by type: f, d, l, x, e, s, p")
	flags.StringSliceP("extension", "e", nil, "Filter by file extension")
	flags.StringSliceP("exclude", "E", nil, "Exclude entries matching the glob")

	// Traversal
	flags.IntP("max-depth", "d", 0, "Maximum search depth (0 = unlimited)")
	flags.Int("min-depth", 0, "Only show results at least this deep")
	flags.Int("exact-depth", 0, "Only show results at exactly this depth")
	flags.BoolP("follow", "L", false, "Follow symbolic links")
	flags.Bool("one-file-system", false, "Do not descend into other file systems")
	flags.StringSlice("search-path", nil, "Additional search root")

	// Metadata filters
	flags.StringArrayP("size", "S", nil, "Limit results by size, e.g. +10k, -1Mi, 512b")
	flags.String("changed-within", "", "Only entries modified at or after a duration ago or a date")
	flags.String("changed-before", "", "Only entries modified at or before a duration ago or a date")
	flags.StringP("owner", "o", "", "Filter by owning user and/or group, e.g. alice, :staff, !root")
	flags.StringArray("xattr", nil, "Require an extended attribute, optionally with a value (name[=value])")

	// Output
	flags.BoolP("absolute-path", "a", false, "Show absolute paths")
	flags.BoolP("print0", "0", false, "Separate results by NUL instead of newline")
	flags.Int("max-results", 0, "Stop after this many results (0 = unlimited)")
	flags.BoolP("one", "1", false, "Stop after the first result")
	flags.BoolP("quiet", "q", false, "Print nothing, exit 0 if there is a match")
	flags.BoolP("list-details", "l", false, "Show details like 'ls -l'")
	flags.StringP("color", "c", "auto", "When to colorize output: auto, always, never")
	flags.Bool("show-errors", false, "Report unreadable directories and broken entries")

	// Execution
	flags.IntP("threads", "j", 0, "Number of concurrent --exec workers (0 = one per CPU)")
	flags.Int("batch-size", 0, "Maximum paths per --exec-batch invocation (0 = no limit)")
	flags.Bool("history", false, "Record invocations in the history database")

	// Consumed before flag parsing; registered for --help only.
	flags.StringP("exec", "x", "", "Run a command for each result, terminated by ';'")
	flags.StringP("exec-batch", "X", "", "Run a command once with all results, terminated by ';'")
}

// Execute runs the CLI with args and returns the process exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rest, groups, err := splitExecArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFailure
	}

	root := newRootCommand(groups)
	root.SetArgs(rest)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return exitCode(root.ExecuteContext(ctx), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", strings.TrimRight(exitErr.Err.Error(), "\n"))
		}
		return exitErr.Code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitFailure
}
