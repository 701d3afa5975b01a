package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harrison/sift/internal/config"
	"github.com/harrison/sift/internal/executor"
	"github.com/harrison/sift/internal/filter"
	"github.com/harrison/sift/internal/history"
	"github.com/harrison/sift/internal/logger"
	"github.com/harrison/sift/internal/search"
	"github.com/harrison/sift/internal/walk"
)

// listDetailsCommand is the batch command behind --list-details.
var listDetailsCommand = []string{"ls", "-l", "-h", "-a", "-d"}

func runSearch(cmd *cobra.Command, args []string, groups *execGroups) error {
	flags := cmd.Flags()
	if flags.Changed("exec") || flags.Changed("exec-batch") {
		return fmt.Errorf("--exec and --exec-batch take a command terminated by ';', not a flag value")
	}

	cfg, err := loadSearchConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	caps := filter.Available()

	walkOpts, err := walkOptions(flags, args, cfg, log)
	if err != nil {
		return err
	}
	if walkOpts.OneFileSystem {
		if err := caps.Require(filter.CapSameFilesystem); err != nil {
			return err
		}
	}
	walker, err := walk.New(walkOpts)
	if err != nil {
		return err
	}
	log.LogTrace(fmt.Sprintf("pattern %q over roots %v", walkOpts.Pattern, walkOpts.Roots))

	var filters *filter.Set
	if spec := filterSpec(flags); !spec.IsEmpty() {
		filters, err = filter.Build(spec, time.Now(), caps)
		if err != nil {
			return err
		}
	}

	commands, err := commandSet(flags, groups, cfg)
	if err != nil {
		return err
	}

	quiet, _ := flags.GetBool("quiet")
	if quiet && commands.Mode() != executor.ModeNone {
		return fmt.Errorf("--quiet cannot be combined with --%s", commands.Mode())
	}

	colorMode, _ := flags.GetString("color")
	colorize, err := useColor(colorMode, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var engine *executor.Engine
	if commands.Mode() != executor.ModeNone {
		engine = executor.NewEngine(commands, cfg.EffectiveThreads(), log)
		engine.SetOutput(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())

		recordHistory, _ := flags.GetBool("history")
		if recordHistory || cfg.History.Enabled {
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			engine.SetRecorder(store)
			log.Debugf("recording invocations of run %s in %s", engine.RunID(), store.Path())
		}
	}

	maxResults, _ := flags.GetInt("max-results")
	if one, _ := flags.GetBool("one"); one {
		maxResults = 1
	}
	if maxResults < 0 {
		return fmt.Errorf("--max-results must be >= 0, got %d", maxResults)
	}
	print0, _ := flags.GetBool("print0")

	printer := search.NewPrinter(cmd.OutOrStdout(), print0, colorize)
	searcher := search.New(walker, filters, engine, printer, log, search.Options{
		MaxResults: maxResults,
		Quiet:      quiet,
	})

	result, err := searcher.Run(cmd.Context())
	if err != nil {
		return err
	}

	switch {
	case result.Interrupted:
		return &ExitError{Code: ExitInterrupted}
	case !result.Summary.Success():
		return &ExitError{Code: ExitFailure, Err: result.Summary.Err()}
	case !result.Success(quiet):
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

// loadSearchConfig loads the configuration file and applies the flags the
// user set explicitly.
func loadSearchConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var threads, batchSize *int
	var logLevel *string
	var hidden, follow, showErrors *bool

	if cmd.Flags().Changed("threads") {
		v, _ := cmd.Flags().GetInt("threads")
		threads = &v
	}
	if cmd.Flags().Changed("batch-size") {
		v, _ := cmd.Flags().GetInt("batch-size")
		batchSize = &v
	}
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		v = strings.ToLower(strings.TrimSpace(v))
		logLevel = &v
	}
	if cmd.Flags().Changed("hidden") {
		v, _ := cmd.Flags().GetBool("hidden")
		hidden = &v
	}
	if cmd.Flags().Changed("follow") {
		v, _ := cmd.Flags().GetBool("follow")
		follow = &v
	}
	if cmd.Flags().Changed("show-errors") {
		v, _ := cmd.Flags().GetBool("show-errors")
		showErrors = &v
	}

	cfg.MergeWithFlags(threads, batchSize, logLevel, hidden, follow, showErrors)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// walkOptions translates positional arguments and traversal flags. The
// first argument is the pattern, the rest are search roots.
func walkOptions(flags *pflag.FlagSet, args []string, cfg *config.Config, log *logger.ConsoleLogger) (walk.Options, error) {
	opts := walk.Options{
		Hidden: cfg.Hidden,
		Follow: cfg.Follow,
	}

	if len(args) > 0 {
		opts.Pattern = args[0]
		opts.Roots = append(opts.Roots, args[1:]...)
	}
	searchPaths, _ := flags.GetStringSlice("search-path")
	opts.Roots = append(opts.Roots, searchPaths...)
	for _, root := range opts.Roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return opts, fmt.Errorf("search path %q is not a directory", root)
		}
	}

	caseSensitive, _ := flags.GetBool("case-sensitive")
	ignoreCase, _ := flags.GetBool("ignore-case")
	switch {
	case caseSensitive && ignoreCase:
		return opts, fmt.Errorf("cannot use --case-sensitive and --ignore-case together")
	case caseSensitive:
		opts.Case = walk.CaseSensitive
	case ignoreCase:
		opts.Case = walk.CaseInsensitive
	}

	opts.Glob, _ = flags.GetBool("glob")
	opts.FixedStrings, _ = flags.GetBool("fixed-strings")
	if opts.Glob && opts.FixedStrings {
		return opts, fmt.Errorf("cannot use --glob and --fixed-strings together")
	}
	opts.FullPath, _ = flags.GetBool("full-path")
	opts.Types, _ = flags.GetStringSlice("type")
	opts.Extensions, _ = flags.GetStringSlice("extension")
	opts.Excludes, _ = flags.GetStringSlice("exclude")
	opts.OneFileSystem, _ = flags.GetBool("one-file-system")
	opts.Absolute, _ = flags.GetBool("absolute-path")

	opts.MaxDepth, _ = flags.GetInt("max-depth")
	opts.MinDepth, _ = flags.GetInt("min-depth")
	if flags.Changed("exact-depth") {
		if flags.Changed("max-depth") || flags.Changed("min-depth") {
			return opts, fmt.Errorf("--exact-depth cannot be combined with --min-depth or --max-depth")
		}
		depth, _ := flags.GetInt("exact-depth")
		if depth < 1 {
			return opts, fmt.Errorf("--exact-depth must be >= 1, got %d", depth)
		}
		opts.MinDepth, opts.MaxDepth = depth, depth
	}

	showErrors := cfg.ShowErrors
	opts.OnError = func(path string, err error) {
		message := fmt.Sprintf("%s: %v", path, err)
		if showErrors {
			log.LogError(message)
			return
		}
		log.LogDebug(message)
	}
	return opts, nil
}

func filterSpec(flags *pflag.FlagSet) filter.Spec {
	var spec filter.Spec
	spec.Sizes, _ = flags.GetStringArray("size")
	spec.ChangedWithin, _ = flags.GetString("changed-within")
	spec.ChangedBefore, _ = flags.GetString("changed-before")
	spec.Owner, _ = flags.GetString("owner")
	spec.XAttrs, _ = flags.GetStringArray("xattr")
	return spec
}

// commandSet builds the command set from the split exec groups, adding the
// --list-details command when requested.
func commandSet(flags *pflag.FlagSet, groups *execGroups, cfg *config.Config) (*executor.CommandSet, error) {
	batch := groups.batch
	if listDetails, _ := flags.GetBool("list-details"); listDetails {
		if !groups.empty() {
			return nil, fmt.Errorf("--list-details cannot be combined with --exec or --exec-batch")
		}
		batch = [][]string{listDetailsCommand}
	}

	if flags.Changed("batch-size") && len(batch) == 0 {
		return nil, fmt.Errorf("--batch-size requires --exec-batch")
	}

	commands, err := executor.NewCommandSet(groups.exec, batch, cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	return commands, nil
}

// useColor resolves the --color mode against the output writer.
func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		if !ok || color.NoColor {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("invalid --color %q, must be one of: auto, always, never", mode)
	}
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve history database: %w", err)
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}
