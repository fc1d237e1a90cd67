package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildArgs(t *testing.T) {
	got := childArgs([]string{"daemon", "--detach", "--interval", "1m", "--detach=true"})
	assert.Equal(t, []string{"daemon", "--interval", "1m", "--child"}, got)
}

func TestDaemonFiles_ClaimAndRelease(t *testing.T) {
	files := daemonFiles{pidPath: filepath.Join(t.TempDir(), "run", "xpdashd.pid")}

	_, alive := files.running()
	assert.False(t, alive)

	rec := daemonRecord{
		PID:         os.Getpid(),
		Addr:        "127.0.0.1:9999",
		Learner:     "jdoe",
		IntervalSec: 30,
		StartedAt:   time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, files.claim(rec))

	pid, alive := files.running()
	assert.True(t, alive, "the test process itself is alive")
	assert.Equal(t, os.Getpid(), pid)

	got, err := files.record()
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got.Learner)
	assert.Equal(t, "127.0.0.1:9999", got.Addr)
	assert.Equal(t, 30, got.IntervalSec)

	err = files.claim(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	files.release()
	_, err = os.Stat(files.pidPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(files.recordPath())
	assert.True(t, os.IsNotExist(err))
}

func TestDaemonFiles_InvalidPID(t *testing.T) {
	files := daemonFiles{pidPath: filepath.Join(t.TempDir(), "xpdashd.pid")}
	require.NoError(t, os.WriteFile(files.pidPath, []byte("not-a-pid\n"), 0o600))

	_, err := files.pid()
	require.Error(t, err)

	pid, alive := files.running()
	assert.Zero(t, pid)
	assert.False(t, alive)
}
