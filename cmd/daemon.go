package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/daemon"
	"github.com/theirongolddev/xpdash/internal/log"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/store"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background progress daemon with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(pipeline.CacheDir(), "xpdashd.pid")
	defaultLog := filepath.Join(pipeline.CacheDir(), "xpdashd.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "127.0.0.1:8787", "HTTP listen address")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", daemon.DefaultInterval,
		fmt.Sprintf("Polling interval (min %s)", daemon.MinInterval))
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	files := daemonFiles{pidPath: flagDaemonPIDFile}
	if flagDaemonDetach {
		return startDaemonDetached(files)
	}
	return runDaemonForeground(cmd.Context(), files)
}

// daemonLearner names the account the daemon polls, for messages only.
func daemonLearner() string {
	if id, _ := config.GetCredentials(appCfg); id != "" {
		return id
	}
	return "the signed-in learner"
}

func startDaemonDetached(files daemonFiles) error {
	if pid, alive := files.running(); alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	pid, err := spawnDetached(os.Args[1:], flagDaemonLogFile)
	if err != nil {
		return err
	}

	fmt.Printf("  Watching %s in the background (pid %d)\n", daemonLearner(), pid)
	fmt.Printf("  PID file: %s\n", files.pidPath)
	fmt.Printf("  API: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground(ctx context.Context, files daemonFiles) error {
	opts, err := aggregateOptions()
	if err != nil {
		return err
	}
	// The service stamps each poll itself.
	opts.Now = time.Time{}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	var cache *store.Cache
	if !flagNoCache {
		if cache, err = store.Open(pipeline.CachePath()); err != nil {
			logger.Warn("cache unavailable", log.FieldError, err)
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
		}
	}

	svc := daemon.New(daemon.Config{
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		Options:      opts,
	}, client, cache, logger)

	learner := daemonLearner()
	if err := files.claim(daemonRecord{
		PID:         os.Getpid(),
		Addr:        flagDaemonAddr,
		Learner:     learner,
		IntervalSec: int(svc.Interval() / time.Second),
		StartedAt:   time.Now(),
		BaseURL:     config.GetBaseURL(appCfg),
	}); err != nil {
		return err
	}
	defer files.release()

	fmt.Printf("  Watching %s's progress on http://%s\n", learner, flagDaemonAddr)
	fmt.Printf("  Polling every %s\n", svc.Interval())
	fmt.Printf("  Stop with: xpdash daemon stop --pid-file %s\n", files.pidPath)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	files := daemonFiles{pidPath: flagDaemonPIDFile}
	pid, alive := files.running()
	switch {
	case pid == 0:
		fmt.Println("  Daemon: not running")
		return nil
	case !alive:
		fmt.Printf("  Daemon: not running (removed stale pid %d)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	rec, recErr := files.record()
	if recErr == nil && rec.Addr != "" {
		addr = rec.Addr
	}

	pairs := [][2]string{{"Daemon PID", strconv.Itoa(pid)}, {"Address", "http://" + addr}}
	if recErr == nil && !rec.StartedAt.IsZero() {
		pairs = append(pairs, [2]string{"Running since", cli.FormatRelative(rec.StartedAt, timeNow())})
	}

	st, err := fetchDaemonStatus(cmd.Context(), addr)
	if err != nil {
		pairs = append(pairs, [2]string{"API", err.Error()})
		fmt.Print(cli.RenderKeyValues(pairs))
		return nil
	}

	learner := st.Summary.Login
	if learner == "" {
		learner = rec.Learner
	}
	if learner != "" {
		pairs = append(pairs, [2]string{"Learner", learner})
	}
	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = cli.FormatRelative(st.LastPollAt, timeNow())
	}
	pairs = append(pairs,
		[2]string{"Last poll", fmt.Sprintf("%s (%d polls, every %ds)", lastPoll, st.PollCount, st.PollIntervalSec)},
		[2]string{"Total XP", fmt.Sprintf("%s (level %d, %s)",
			cli.FormatXP(st.Summary.TotalXP), st.Summary.Level, cli.FormatPercent(st.Summary.ProgressPercent))},
		[2]string{"Completed", strconv.Itoa(st.Summary.CompletedProjects) + " projects"},
	)
	if st.Stale {
		pairs = append(pairs, [2]string{"Data", "stale (serving cached records)"})
	}
	if st.LastError != "" {
		pairs = append(pairs, [2]string{"Last error", st.LastError})
	}
	fmt.Print(cli.RenderKeyValues(pairs))
	return nil
}

func fetchDaemonStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	files := daemonFiles{pidPath: flagDaemonPIDFile}
	pid, alive := files.running()
	if !alive {
		return errors.New("daemon is not running")
	}
	learner := ""
	if rec, err := files.record(); err == nil {
		learner = rec.Learner
	}

	if err := stopProcess(pid, 8*time.Second); err != nil {
		return err
	}
	files.release()
	if learner != "" {
		fmt.Printf("  Stopped watching %s (pid %d)\n", learner, pid)
	} else {
		fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	}
	return nil
}
