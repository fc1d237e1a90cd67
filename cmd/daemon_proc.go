package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonRecord is written next to the pid file while a daemon runs, so
// `daemon status` can find it and name the learner it watches.
type daemonRecord struct {
	PID         int       `json:"pid"`
	Addr        string    `json:"addr"`
	Learner     string    `json:"learner,omitempty"`
	IntervalSec int       `json:"interval_sec,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	BaseURL     string    `json:"base_url,omitempty"`
}

// daemonFiles locates the pid and record files of one daemon instance.
type daemonFiles struct {
	pidPath string
}

func (f daemonFiles) recordPath() string { return f.pidPath + ".json" }

// claim writes the pid file and record for the current process. It fails
// when another live daemon owns the pid file; a stale one is replaced.
func (f daemonFiles) claim(rec daemonRecord) error {
	if pid, alive := f.running(); alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	if err := os.MkdirAll(filepath.Dir(f.pidPath), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.pidPath, []byte(strconv.Itoa(rec.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.recordPath(), append(data, '\n'), 0o600)
}

func (f daemonFiles) release() {
	_ = os.Remove(f.pidPath)
	_ = os.Remove(f.recordPath())
}

// pid reads the pid file.
func (f daemonFiles) pid() (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(f.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f.pidPath)
	}
	return pid, nil
}

// running reports the recorded pid and whether that process is alive.
// Files left by a dead process are removed.
func (f daemonFiles) running() (int, bool) {
	pid, err := f.pid()
	if err != nil {
		return 0, false
	}
	if processAlive(pid) {
		return pid, true
	}
	f.release()
	return pid, false
}

func (f daemonFiles) record() (daemonRecord, error) {
	var rec daemonRecord
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(f.recordPath())
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(data, &rec)
	return rec, err
}

// spawnDetached re-executes the current binary as a daemon child with
// output appended to logPath. It returns the child's pid.
func spawnDetached(args []string, logPath string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return 0, fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, childArgs(args)...) //nolint:gosec // args come from the current invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return 0, fmt.Errorf("start detached daemon: %w", err)
	}
	return child.Process.Pid, nil
}

// childArgs swaps --detach for the hidden --child flag.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return append(out, "--child")
}

// stopProcess sends SIGTERM and waits up to grace for the process to exit.
func stopProcess(pid int, grace time.Duration) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}
	for deadline := time.Now().Add(grace); time.Now().Before(deadline); {
		if !processAlive(pid) {
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
