package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/bamsammich/dedupe/internal/config"
	"github.com/bamsammich/dedupe/internal/engine"
	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/export"
	"github.com/bamsammich/dedupe/internal/filter"
	"github.com/bamsammich/dedupe/internal/stats"
	"github.com/bamsammich/dedupe/internal/ui"
)

var version = "dev"

// Process exit codes.
const (
	exitOK          = 0
	exitRoot        = 1 // root path missing or not a directory
	exitFailure     = 2
	exitActionFails = 3 // some files could not be deleted or moved
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

type options struct {
	noRecursive bool
	minSize     string
	maxSize     string
	extensions  []string
	excludeDirs []string
	filterFile  string
	workers     int
	hash        string
	cache       bool
	cacheFile   string
	bwLimit     string
	verify      bool
	fromFile    string

	jsonOut string
	csvOut  string
	yamlOut string

	deleteDups  bool
	moveDir     string
	keep        string
	dryRun      bool
	interactive bool
	yes         bool

	verbose     bool
	quiet       bool
	noProgress  bool
	logFile     string
	showVersion bool

	excludeDirsSet bool
}

func run(args []string) int {
	var opts options
	chain := filter.NewChain()

	rootCmd := &cobra.Command{
		Use:   "dedupe [flags] <directory>",
		Short: "Find duplicate files and optionally delete or move the extra copies",
		Example: `  dedupe ~/Pictures
  dedupe --json dups.json --min-size 1M ~/Pictures
  dedupe --from dups.json --move ~/dups --dry-run`,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.showVersion:
				return nil
			case opts.fromFile != "":
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(os.Stdout, "dedupe %s\n", version)
				return nil
			}
			var root string
			if len(args) > 0 {
				root = args[0]
			}
			if code := scan(cmd.Flags(), root, &opts, chain); code != exitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}

	registerFlags(rootCmd, &opts, chain)
	rootCmd.AddCommand(docsCmd)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func registerFlags(cmd *cobra.Command, opts *options, chain *filter.Chain) {
	f := cmd.Flags()
	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	f.BoolVar(&opts.noRecursive, "no-recursive", false, "only scan the top-level directory")
	f.StringVar(&opts.minSize, "min-size", "1", "ignore files smaller than SIZE (e.g. 100K, 1M)")
	f.StringVar(&opts.maxSize, "max-size", "", "ignore files larger than SIZE (e.g. 1G)")
	f.StringSliceVar(&opts.extensions, "ext", nil, "only consider files with these extensions (repeatable, comma-separated)")
	f.StringSliceVar(&opts.excludeDirs, "exclude-dir", nil, "skip directories with this name at any depth (replaces the defaults)")
	f.Var(&filterFlag{chain: chain, include: false}, "exclude", "exclude paths matching PATTERN (repeatable)")
	f.Var(&filterFlag{chain: chain, include: true}, "include", "include paths matching PATTERN (repeatable)")
	f.StringVar(&opts.filterFile, "filter", "", "read filter rules from FILE")

	f.IntVarP(&opts.workers, "workers", "n", 0, "number of hashing workers (default: min(NumCPU*2, 32))")
	f.StringVar(&opts.hash, "hash", "blake3", "full-content digest (blake3 or sha256)")
	f.BoolVar(&opts.cache, "cache", false, "reuse digests of unchanged files across runs")
	f.StringVar(&opts.cacheFile, "cache-file", "", "hash cache database (implies --cache)")
	f.StringVar(&opts.bwLimit, "bwlimit", "", "limit hashing read rate (e.g. 100M)")
	f.BoolVar(&opts.verify, "verify", false, "re-hash each group immediately before acting on it")
	f.StringVar(&opts.fromFile, "from", "", "skip the scan and load groups from a JSON or YAML report (implies --verify)")

	f.StringVar(&opts.jsonOut, "json", "", "write the report as JSON to FILE (.zst compresses)")
	f.StringVar(&opts.csvOut, "csv", "", "write the report as CSV to FILE (.zst compresses)")
	f.StringVar(&opts.yamlOut, "yaml", "", "write the report as YAML to FILE (.zst compresses)")

	f.BoolVar(&opts.deleteDups, "delete", false, "delete every duplicate except the keeper")
	f.StringVar(&opts.moveDir, "move", "", "move every duplicate except the keeper into DIR")
	f.StringVar(&opts.keep, "keep", "oldest", "which copy to keep (oldest, newest or first)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "show what --delete or --move would do without changing anything")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "ask before each delete or move")
	f.BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation before deleting or moving")

	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable progress display")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")

	cmd.MarkFlagsMutuallyExclusive("delete", "move")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	if err := cmd.MarkFlagFilename("from", "json", "yaml", "yml", "zst"); err != nil {
		panic(fmt.Sprintf("mark flag filename: %v", err))
	}
	if err := cmd.MarkFlagFilename("filter"); err != nil {
		panic(fmt.Sprintf("mark flag filename: %v", err))
	}
	if err := cmd.MarkFlagDirname("move"); err != nil {
		panic(fmt.Sprintf("mark flag dirname: %v", err))
	}
}

// scan runs one complete invocation and returns the process exit code.
//
//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: CLI entry point orchestrates scan, report and action
func scan(flags *pflag.FlagSet, root string, opts *options, chain *filter.Chain) int {
	defer func() {
		if n := engine.CleanupTmpFiles(); n > 0 {
			slog.Warn("removed leftover temporary files", "count", n)
		}
	}()

	// Load optional config file.
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", err)
	}
	ui.ApplyTheme(cfg.Theme)
	applyConfigDefaults(flags, cfg.Defaults, opts)

	closeLog, err := setupLogging(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer closeLog()

	if err := configureFilter(chain, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	alg, err := engine.ParseAlgorithm(opts.hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --hash: %v\n", err)
		return exitFailure
	}
	keep, err := engine.ParseKeepPolicy(opts.keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --keep: %v\n", err)
		return exitFailure
	}
	var limiter *rate.Limiter
	if opts.bwLimit != "" {
		n, err := filter.ParseSize(opts.bwLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --bwlimit: %v\n", err)
			return exitFailure
		}
		limiter = engine.NewBWLimiter(n)
	}

	op := ""
	switch {
	case opts.deleteDups:
		op = "delete"
	case opts.moveDir != "":
		op = "move"
	}
	if opts.interactive && op == "" {
		slog.Warn("--interactive has no effect without --delete or --move")
	}
	if opts.dryRun {
		slog.Info("dry run mode")
	}

	var loaded *export.Report
	if opts.fromFile != "" {
		rep, err := export.ReadFile(opts.fromFile, export.FormatFor(opts.fromFile))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: load report: %v\n", err)
			return exitFailure
		}
		if alg, err = engine.ParseAlgorithm(rep.Algorithm); err != nil {
			fmt.Fprintf(os.Stderr, "Error: report %s: %v\n", opts.fromFile, err)
			return exitFailure
		}
		loaded = &rep
		root = rep.Root
	}

	var cache *engine.HashCache
	if opts.cache || opts.cacheFile != "" {
		cache, err = engine.OpenHashCache(opts.cacheFile)
		if err != nil {
			slog.Warn("hash cache disabled", "error", err)
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					slog.Warn("hash cache close failed", "path", cache.Path(), "error", err)
				}
			}()
		}
	}

	// Set up context with signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	presenter := ui.NewPresenter(ui.Config{
		Writer:     os.Stdout,
		ErrWriter:  os.Stderr,
		Stats:      collector,
		Root:       root,
		IsTTY:      ui.IsTTY(os.Stderr),
		Width:      ui.Width(os.Stderr),
		Quiet:      opts.quiet,
		Verbose:    opts.verbose,
		NoProgress: opts.noProgress,
	})

	engineCfg := engine.Config{
		Root:      root,
		Recursive: !opts.noRecursive,
		Workers:   opts.workers,
		Algorithm: alg,
		Limiter:   limiter,
		Filter:    chain,
		Cache:     cache,
		Stats:     collector,
	}

	var result engine.Result
	if loaded != nil {
		result = engine.Result{Groups: loaded.DuplicateGroups(), Stats: loaded.Statistics}
		slog.Info("loaded report", "path", opts.fromFile, "root", root, "groups", len(result.Groups))
	} else {
		slog.Debug("starting scan",
			"root", root,
			"workers", opts.workers,
			"hash", alg,
			"recursive", !opts.noRecursive,
			"cache", cache != nil,
		)
		stream(presenter, opts.logFile != "", func(events chan<- event.Event) {
			engineCfg.Events = events
			result = engine.Run(ctx, engineCfg)
		})
		if result.Err != nil {
			return scanFailed(result.Err)
		}
	}

	if !opts.quiet {
		if err := ui.WriteReport(os.Stdout, result.Groups, result.Stats, ui.ReportOptions{Root: root, Keep: keep}); err != nil {
			slog.Warn("write report", "error", err)
		}
	}

	if err := writeExports(opts, export.NewReport(root, alg, result.Groups, result.Stats)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}

	code := exitOK
	if op != "" && len(result.Groups) > 0 {
		code = act(ctx, op, presenter, result, engine.ActionConfig{
			Keep:        keep,
			DryRun:      opts.dryRun,
			Interactive: opts.interactive,
			Verify:      opts.verify || loaded != nil,
			Algorithm:   alg,
			Cache:       cache,
			Stats:       collector,
		}, opts)
	}

	if !opts.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}
	return code
}

// act runs the delete or move pass over the scan result.
func act(
	ctx context.Context,
	op string,
	presenter ui.Presenter,
	result engine.Result,
	actCfg engine.ActionConfig,
	opts *options,
) int {
	if opts.dryRun {
		fmt.Fprintln(os.Stderr, color.YellowString("DRY RUN: no files will be changed"))
	}

	if !opts.dryRun && (opts.interactive || !opts.yes) {
		rl, err := newReadline(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitFailure
		}
		defer rl.Close()

		if !opts.interactive {
			verb := map[string]string{"delete": "deleted", "move": "moved to " + opts.moveDir}[op]
			ok, err := confirmDestructive(rl, os.Stderr, verb,
				int(result.Stats.Duplicates), ui.FormatBytes(result.Stats.WastedBytes))
			switch {
			case errors.Is(err, context.Canceled):
				return exitInterrupted
			case err != nil:
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return exitFailure
			case !ok:
				fmt.Fprintln(os.Stderr, "aborted: no files were changed")
				return exitOK
			}
		} else {
			actCfg.Confirm = &promptConfirmer{rl: rl}
		}
	}

	var res engine.ActionResult
	stream(presenter, opts.logFile != "", func(events chan<- event.Event) {
		actCfg.Events = events
		if op == "delete" {
			res = engine.DeleteDuplicates(ctx, result.Groups, actCfg)
		} else {
			res = engine.MoveDuplicates(ctx, result.Groups, opts.moveDir, actCfg)
		}
	})

	if !opts.quiet {
		if err := ui.WriteActionSummary(os.Stdout, op, res, opts.dryRun); err != nil {
			slog.Warn("write action summary", "error", err)
		}
	}

	switch {
	case errors.Is(res.Err, context.Canceled):
		return exitInterrupted
	case res.Err != nil:
		slog.Error(op+" stopped", "error", res.Err)
		return exitFailure
	case res.Failed > 0:
		return exitActionFails
	}
	return exitOK
}

// scanFailed maps a scan error to an exit code.
func scanFailed(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "interrupted")
		return exitInterrupted
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrNotADirectory):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitRoot
	default:
		slog.Error("scan failed", "error", err)
		return exitFailure
	}
}

// stream runs fn with a fresh event channel drained by presenter, and waits
// for the presenter to catch up before returning. When a log file is open,
// every event is also written as a structured record.
func stream(presenter ui.Presenter, logEvents bool, fn func(events chan<- event.Event)) {
	events := make(chan event.Event, 256)

	presenterEvents := (<-chan event.Event)(events)
	if logEvents {
		teed := make(chan event.Event, 256)
		go func() {
			for ev := range events {
				logEvent(ev)
				teed <- ev
			}
			close(teed)
		}()
		presenterEvents = teed
	}

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	fn(events)
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
	}
}

func logEvent(ev event.Event) {
	attrs := []slog.Attr{slog.String("type", ev.Type.String())}
	if ev.Path != "" {
		attrs = append(attrs, slog.String("path", ev.Path))
	}
	if ev.Target != "" {
		attrs = append(attrs, slog.String("target", ev.Target))
	}
	if ev.Stage != "" {
		attrs = append(attrs, slog.String("stage", ev.Stage))
	}
	if ev.Digest != "" {
		attrs = append(attrs, slog.String("digest", ev.Digest))
	}
	attrs = append(attrs, slog.Int64("size", ev.Size), slog.Int64("count", ev.Count))
	if ev.DryRun {
		attrs = append(attrs, slog.Bool("dry_run", true))
	}
	if ev.Type == event.FileHashed {
		attrs = append(attrs, slog.Int("worker", ev.WorkerID))
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	slog.LogAttrs(context.Background(), slog.LevelDebug, "dedupe.event", attrs...)
}

// setupLogging installs the default slog logger: text on stderr, plus a
// JSON file when --log is set. The returned func closes the log file.
func setupLogging(opts *options) (func(), error) {
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if !opts.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	var logHandler slog.Handler = textHandler
	closeLog := func() {}
	if opts.logFile != "" {
		lf, err := os.Create(opts.logFile)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		closeLog = func() { lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return closeLog, nil
}

// configureFilter applies the size, extension and directory options to chain.
// --exclude and --include rules were already added while parsing flags.
func configureFilter(chain *filter.Chain, opts *options) error {
	if opts.filterFile != "" {
		if err := chain.LoadFile(opts.filterFile); err != nil {
			return fmt.Errorf("load filter file: %w", err)
		}
	}
	if opts.minSize != "" {
		n, err := filter.ParseSize(opts.minSize)
		if err != nil {
			return fmt.Errorf("invalid --min-size: %w", err)
		}
		chain.SetMinSize(n)
	}
	if opts.maxSize != "" {
		n, err := filter.ParseSize(opts.maxSize)
		if err != nil {
			return fmt.Errorf("invalid --max-size: %w", err)
		}
		chain.SetMaxSize(n)
	}
	for _, ext := range opts.extensions {
		chain.AddExtension(ext)
	}
	if opts.excludeDirsSet {
		chain.SetExcludeDirs(opts.excludeDirs)
	}
	return nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(flags *pflag.FlagSet, defaults config.DefaultsConfig, opts *options) {
	setString := func(name string, dst *string, v *string) {
		if !flags.Changed(name) && v != nil {
			*dst = *v
		}
	}
	setString("min-size", &opts.minSize, defaults.MinSize)
	setString("max-size", &opts.maxSize, defaults.MaxSize)
	setString("keep", &opts.keep, defaults.Keep)
	setString("hash", &opts.hash, defaults.Hash)
	setString("bwlimit", &opts.bwLimit, defaults.BWLimit)

	if !flags.Changed("workers") && defaults.Workers != nil {
		opts.workers = *defaults.Workers
	}
	if !flags.Changed("cache") && defaults.Cache != nil {
		opts.cache = *defaults.Cache
	}
	if !flags.Changed("verify") && defaults.Verify != nil {
		opts.verify = *defaults.Verify
	}
	if !flags.Changed("ext") && defaults.Extensions != nil {
		opts.extensions = defaults.Extensions
	}

	opts.excludeDirsSet = flags.Changed("exclude-dir")
	if !opts.excludeDirsSet && defaults.ExcludeDirs != nil {
		opts.excludeDirs = defaults.ExcludeDirs
		opts.excludeDirsSet = true
	}
}

// writeExports writes every requested report file. All targets are attempted.
func writeExports(opts *options, report export.Report) error {
	targets := []struct {
		path   string
		format export.Format
	}{
		{opts.jsonOut, export.JSON},
		{opts.csvOut, export.CSV},
		{opts.yamlOut, export.YAML},
	}

	var errs []error
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		if err := export.WriteFile(t.path, t.format, report); err != nil {
			errs = append(errs, fmt.Errorf("write %s report %s: %w", t.format, t.path, err))
			continue
		}
		slog.Info("report written", "format", t.format.String(), "path", t.path)
	}
	return errors.Join(errs...)
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
