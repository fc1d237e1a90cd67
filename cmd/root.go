// Package cmd implements the xpdash CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/category"
	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/log"
	"github.com/theirongolddev/xpdash/internal/model"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/platform"
	"github.com/theirongolddev/xpdash/internal/source"
	"github.com/theirongolddev/xpdash/internal/store"
)

var (
	flagRecentDays int
	flagNoCache    bool
	flagQuiet      bool
	flagVerbose    bool
	flagLogJSON    bool
	flagInput      string
	flagRules      string
)

// Set in PersistentPreRunE.
var (
	appCfg config.Config
	logger = log.Discard()
)

var timeNow = time.Now

var errNotLoggedIn = errors.New("not logged in: run `xpdash login` or set " + config.EnvToken)

var rootCmd = &cobra.Command{
	Use:               "xpdash",
	Short:             "01 platform progress dashboard",
	Long:              "Track your XP, level and skill distribution on the 01 learning platform.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagRecentDays, "recent-days", "n", 0, "Recent activity window in days (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the record cache and fetch everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Log as JSON")
	rootCmd.PersistentFlags().StringVarP(&flagInput, "input", "i", "", "Read records from a snapshot file instead of the platform")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "Category rules file (.toml or .yaml)")
}

func setup(_ *cobra.Command, _ []string) error {
	level := log.ParseLevel("warn")
	if flagVerbose {
		level = log.ParseLevel("debug")
	}
	logger = log.New(log.Options{Level: level, JSON: flagLogJSON})
	log.SetDefault(logger)

	if err := config.LoadEnv(); err != nil {
		logger.Warn("reading .env", log.FieldError, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagRules != "" {
		cfg.Categories.RulesFile = flagRules
	}
	if flagRecentDays > 0 {
		cfg.General.RecentDays = flagRecentDays
	}
	appCfg = cfg
	return nil
}

// showProgress reports whether progress lines should go to stderr.
func showProgress() bool {
	if flagQuiet {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newClient builds a platform client from config and env, signing in
// with env credentials when no valid token is stored.
func newClient(ctx context.Context) (*platform.Client, error) {
	baseURL := config.GetBaseURL(appCfg)
	opts := []platform.Option{platform.WithLogger(logger)}

	token := config.GetToken(appCfg)
	if token != "" && platform.TokenValid(token, timeNow()) {
		return platform.NewClient(baseURL, append(opts, platform.WithToken(token))...), nil
	}

	id, pw := config.GetCredentials(appCfg)
	if id == "" || pw == "" {
		if token != "" {
			return nil, fmt.Errorf("%w (stored token expired)", errNotLoggedIn)
		}
		return nil, errNotLoggedIn
	}

	client := platform.NewClient(baseURL, opts...)
	if _, err := client.Signin(ctx, id, pw); err != nil {
		return nil, fmt.Errorf("signing in as %s: %w", id, err)
	}
	return client, nil
}

// fetchRecords is the quiet record loading path shared by the CLI and
// the TUI. It reads --input when set, otherwise the platform through the
// SQLite cache. force fetches even when the cache is fresh.
func fetchRecords(ctx context.Context, force bool, progressFn pipeline.ProgressFunc) (*pipeline.CachedLoadResult, error) {
	if flagInput != "" {
		snap, err := source.ReadSnapshot(flagInput)
		if err != nil {
			return nil, err
		}
		return &pipeline.CachedLoadResult{LoadResult: *pipeline.FromSnapshot(snap)}, nil
	}

	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}

	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			logger.Warn("cache unavailable", log.FieldError, err, log.FieldPath, pipeline.CachePath())
		} else {
			defer func() { _ = cache.Close() }()

			maxAge := appCfg.CacheTTL()
			if force {
				maxAge = 0
			}
			cr, err := pipeline.LoadWithCache(ctx, client, cache, maxAge, progressFn)
			if err == nil {
				if cr.Stale {
					logger.Warn("stale cache", log.FieldError, cr.FetchErr, log.FieldAge, cr.Age)
				}
				return cr, nil
			}
			logger.Warn("cached load failed, fetching directly", log.FieldError, err)
		}
	}

	result, err := pipeline.Load(ctx, client, progressFn)
	if err != nil {
		return nil, err
	}
	return &pipeline.CachedLoadResult{LoadResult: *result}, nil
}

// loadRecords wraps fetchRecords with progress and status lines on stderr.
func loadRecords(ctx context.Context) (*pipeline.LoadResult, error) {
	progress := showProgress()
	progressFn := func(current, total int) {
		if progress {
			fmt.Fprintf(os.Stderr, "\r  Fetching [%d/%d]", current, total)
		}
	}

	cr, err := fetchRecords(ctx, false, progressFn)
	if err != nil {
		if progress {
			fmt.Fprintln(os.Stderr)
		}
		return nil, err
	}

	switch {
	case flagInput != "":
	case cr.Stale:
		fmt.Fprintf(os.Stderr, "\r%s\n", cli.RenderWarning(fmt.Sprintf(
			"platform unreachable, showing records from %s ago", cr.Age.Round(time.Second))))
	case cr.FromCache && progress:
		fmt.Fprintf(os.Stderr, "  Loaded records from cache (%s old)\n", cr.Age.Round(time.Second))
	case progress:
		fmt.Fprintf(os.Stderr, "\r  Fetched %s transactions    \n",
			cli.FormatNumber(int64(len(cr.Snapshot.Transactions))))
	}
	reportWarnings(&cr.LoadResult)
	return &cr.LoadResult, nil
}

func reportWarnings(r *pipeline.LoadResult) {
	for _, w := range r.Warnings {
		logger.Warn("partial load", log.FieldError, w)
	}
	if r.ParseErrors > 0 {
		logger.Info("dropped malformed records", log.FieldDropped, r.ParseErrors)
	}
}

// aggregateOptions resolves the category rules and window from config.
func aggregateOptions() (pipeline.Options, error) {
	rs, err := appCfg.RuleSet()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Classifier: category.NewClassifier(rs),
		RecentDays: appCfg.General.RecentDays,
		Now:        timeNow(),
	}, nil
}

// loadDashboard loads records and aggregates them.
func loadDashboard(ctx context.Context) (model.Dashboard, *pipeline.LoadResult, error) {
	res, err := loadRecords(ctx)
	if err != nil {
		return model.Dashboard{}, nil, err
	}
	opts, err := aggregateOptions()
	if err != nil {
		return model.Dashboard{}, nil, err
	}
	dash, err := pipeline.Aggregate(res.Input, opts)
	if err != nil {
		return model.Dashboard{}, nil, err
	}
	return dash, res, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func maskToken(tok string) string {
	if len(tok) > 16 {
		return tok[:8] + "..." + tok[len(tok)-4:]
	}
	if len(tok) > 4 {
		return tok[:4] + "..."
	}
	return strings.Repeat("*", 4)
}
