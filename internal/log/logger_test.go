package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, JSON: true, Level: slog.LevelDebug})

	l.WithComponent(ComponentPipeline).Info("loaded", FieldCount, 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "loaded", rec["msg"])
	assert.Equal(t, ComponentPipeline, rec[FieldComponent])
	assert.EqualValues(t, 3, rec[FieldCount])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Level: slog.LevelWarn})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "component=app")
}

func TestErr(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf})

	l.Err(context.Background(), "fetch", nil)
	assert.Zero(t, buf.Len())

	l.Err(context.Background(), "fetch", errors.New("boom"))
	assert.Contains(t, buf.String(), "fetch failed")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
