package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/fwt/internal/config"
	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
	"github.com/bamsammich/fwt/internal/hashcache"
	"github.com/bamsammich/fwt/internal/stats"
	"github.com/bamsammich/fwt/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude rules. A leading "!" turns a rule into an include.
type filterFlag struct {
	rules *[]string
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	if val == "" || val == "!" {
		return errors.New("empty pattern")
	}
	*f.rules = append(*f.rules, val)
	return nil
}

// globals holds the persistent flags and the state derived from them
// before any subcommand runs.
type globals struct {
	db         string
	excludes   []string
	filterFile string
	minSize    string
	maxSize    string
	icase      bool
	batchSize  int
	bwLimit    string
	verbose    bool
	quiet      bool
	logFile    string
	color      string

	cfg       config.Config
	stdout    io.Writer
	stderr    io.Writer
	filter    *filter.Chain
	printer   *ui.Printer
	eventLog  *slog.Logger
	collector *stats.Collector
	bwRate    int64
	closers   []io.Closer
}

func (g *globals) close() {
	for i := len(g.closers) - 1; i >= 0; i-- {
		_ = g.closers[i].Close()
	}
	g.closers = nil
}

func run(args []string, stdout, stderr io.Writer) int {
	g := &globals{stdout: stdout, stderr: stderr}
	defer g.close()

	rootCmd := newRootCmd(g)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "interrupted")
		return 130
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return errs.ExitCode(err)
}

func newRootCmd(g *globals) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fwt",
		Short:         "File tree tools: compare, find duplicates, merge and index",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.db, "db", "", "hash cache file or directory (default ~/.fwt.db)")
	pf.Var(&filterFlag{rules: &g.excludes}, "exclude",
		"exclude files matching PATTERN; prefix with ! to re-include (repeatable, last match wins)")
	pf.StringVar(&g.filterFile, "filter", "", "read filter rules from FILE")
	pf.StringVar(&g.minSize, "min-size", "", "skip files smaller than SIZE (e.g. 1M, 100K)")
	pf.StringVar(&g.maxSize, "max-size", "", "skip files larger than SIZE (e.g. 1G, 500M)")
	pf.BoolVar(&g.icase, "icase", false, "case-insensitive pattern matching")
	pf.IntVar(&g.batchSize, "batch-size", hashcache.DefaultBatchSize, "files hashed per cache transaction")
	pf.StringVar(&g.bwLimit, "bwlimit", "", "cap hashing reads to RATE bytes per second (e.g. 50M)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress report output except errors")
	pf.StringVar(&g.logFile, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&g.color, "color", "auto", "colour report labels: auto, always or never")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errs.Invalid("%v", err)
	})

	rootCmd.AddCommand(
		newCompareCmd(g),
		newFinddupsCmd(g),
		newMergeCmd(g),
		newIndexCmd(g),
		newRemapCmd(g),
		newQueryCmd(g),
		newNextCmd(g),
		newRenumCmd(g),
		newDocsCmd(),
	)
	return rootCmd
}

// setup loads the config file, applies its defaults to flags not set on
// the command line, and builds the logger, filter chain and printer.
//
//nolint:gocyclo // flag and config resolution is a flat sequence
func (g *globals) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}
	g.cfg = cfg
	g.applyConfigDefaults(cmd, cfg.Defaults)
	ui.ApplyTheme(cfg.Theme)

	if g.verbose && g.quiet {
		return errs.Invalid("--verbose and --quiet are mutually exclusive")
	}
	if g.batchSize <= 0 {
		return errs.Invalid("--batch-size must be positive")
	}
	if g.bwLimit != "" {
		n, err := filter.ParseSize(g.bwLimit)
		if err != nil {
			return errs.Invalid("invalid --bwlimit: %v", err)
		}
		g.bwRate = n
	}

	logLevel := slog.LevelInfo
	switch {
	case g.verbose:
		logLevel = slog.LevelDebug
	case g.quiet:
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(g.stderr, &slog.HandlerOptions{Level: logLevel})
	var logHandler slog.Handler = textHandler
	if g.logFile != "" {
		lf, lfErr := os.Create(g.logFile)
		if lfErr != nil {
			return errs.IO("open log file", g.logFile, lfErr)
		}
		g.closers = append(g.closers, lf)
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
		g.eventLog = slog.New(jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))

	g.filter, err = g.buildFilter(cfg.Defaults.Exclude)
	if err != nil {
		return err
	}

	mode, err := ui.ParseColorMode(g.color)
	if err != nil {
		return errs.Invalid("%v", err)
	}
	useColor := mode == ui.ColorAlways
	if f, ok := g.stdout.(*os.File); ok {
		useColor = ui.UseColor(mode, f.Fd())
	}
	g.printer = ui.NewPrinter(ui.Config{
		Writer:  g.stdout,
		Color:   useColor,
		Quiet:   g.quiet,
		Verbose: g.verbose,
	})
	g.collector = stats.NewCollector()
	return nil
}

// applyConfigDefaults applies config file defaults for persistent flags
// not explicitly set on the CLI. Config excludes come before CLI ones so
// the command line can override them.
func (g *globals) applyConfigDefaults(cmd *cobra.Command, d config.DefaultsConfig) {
	flags := cmd.Flags()
	if !flags.Changed("db") && d.DB != nil {
		g.db = *d.DB
	}
	if !flags.Changed("icase") && d.ICase != nil {
		g.icase = *d.ICase
	}
	if !flags.Changed("batch-size") && d.BatchSize != nil {
		g.batchSize = *d.BatchSize
	}
	if !flags.Changed("bwlimit") && d.BWLimit != nil {
		g.bwLimit = *d.BWLimit
	}
	if !flags.Changed("color") && d.Color != nil {
		g.color = *d.Color
	}
}

func (g *globals) buildFilter(configExcludes []string) (*filter.Chain, error) {
	chain := filter.NewChain(filter.WithCaseInsensitive(g.icase))
	for _, rules := range [][]string{configExcludes, g.excludes} {
		for _, r := range rules {
			if err := chain.Add(r); err != nil {
				return nil, errs.Invalid("invalid exclude %q: %v", r, err)
			}
		}
	}
	if g.filterFile != "" {
		if err := chain.LoadFile(g.filterFile); err != nil {
			return nil, errs.Invalid("load filter file: %v", err)
		}
	}
	if g.minSize != "" {
		n, err := filter.ParseSize(g.minSize)
		if err != nil {
			return nil, errs.Invalid("invalid --min-size: %v", err)
		}
		chain.SetMinSize(n)
	}
	if g.maxSize != "" {
		n, err := filter.ParseSize(g.maxSize)
		if err != nil {
			return nil, errs.Invalid("invalid --max-size: %v", err)
		}
		chain.SetMaxSize(n)
	}
	return chain, nil
}

// sink returns the event sink commands report through. With --log every
// event is also written to the JSON log.
//
//nolint:ireturn // Sink is the reporting seam
func (g *globals) sink() event.Sink {
	if g.eventLog == nil {
		return g.printer
	}
	return event.SinkFunc(func(e event.Event) {
		attrs := []slog.Attr{
			slog.String("type", e.Type.String()),
			slog.String("path", e.Path),
		}
		if e.Other != "" {
			attrs = append(attrs, slog.String("other", e.Other))
		}
		if e.Reason != "" {
			attrs = append(attrs, slog.String("reason", e.Reason))
		}
		if e.MissingIn != 0 {
			attrs = append(attrs, slog.String("missing_in", e.MissingIn.String()))
		}
		if len(e.Paths) > 0 {
			attrs = append(attrs, slog.Any("paths", e.Paths))
		}
		if e.Hash != "" {
			attrs = append(attrs, slog.String("hash", e.Hash))
		}
		if e.Size != 0 {
			attrs = append(attrs, slog.Int64("size", e.Size))
		}
		if e.Error != nil {
			attrs = append(attrs, slog.String("error", e.Error.Error()))
		}
		g.eventLog.LogAttrs(context.Background(), slog.LevelInfo, "fwt.event", attrs...)
		g.printer.Emit(e)
	})
}

// openCache opens the hash cache selected by --db.
func (g *globals) openCache(extra ...hashcache.Option) (*hashcache.Cache, error) {
	path := hashcache.ResolvePath(g.db)
	opts := append([]hashcache.Option{
		hashcache.WithBatchSize(g.batchSize),
		hashcache.WithRateLimit(g.bwRate),
		hashcache.WithCollector(g.collector),
		hashcache.WithSink(g.sink()),
	}, extra...)
	c, err := hashcache.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	slog.Debug("opened hash cache", "path", path)
	g.closers = append(g.closers, c)
	return c, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// exactArgs and minArgs report argument count errors as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errs.Invalid("%s takes %d argument(s), got %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return errs.Invalid("%s needs at least %d argument(s), got %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

var _ pflag.Value = (*filterFlag)(nil)
