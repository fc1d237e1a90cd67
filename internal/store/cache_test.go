package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/xpdash/internal/source"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func ptrF(v float64) *float64 { return &v }

func sampleSnapshot(uid int, fetched time.Time) source.Snapshot {
	lvl := 9
	total := int64(3500)
	return source.Snapshot{
		Profile: source.RawProfile{ID: uid, Login: "jdoe", FirstName: "Jane", Level: &lvl},
		TotalXP: &total,
		Transactions: []source.RawTransaction{
			{ID: 11, Amount: 1000, CreatedAt: "2024-01-05T00:00:00Z", Object: &source.RawObject{ID: 1, Name: "go-reloaded", Type: "project"}},
			{ID: 12, Amount: 2500, CreatedAt: "2024-02-10T00:00:00Z", Object: nil},
		},
		Progress: []source.RawProgress{
			{ID: 21, Grade: ptrF(1.5), UpdatedAt: "2024-02-10T00:00:00Z", Object: &source.RawObject{Name: "lem-in", Type: "project"}},
			{ID: 22, Grade: nil, UpdatedAt: "2024-02-11T00:00:00Z", Object: &source.RawObject{Name: "forum", Type: "project"}},
		},
		Results:   []source.RawResult{{Grade: ptrF(1)}, {Grade: nil}},
		FetchedAt: fetched,
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	fetched := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.SaveSnapshot(ctx, sampleSnapshot(42, fetched)))

	got, err := c.LoadSnapshot(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, "jdoe", got.Profile.Login)
	require.NotNil(t, got.Profile.Level)
	assert.Equal(t, 9, *got.Profile.Level)
	require.NotNil(t, got.TotalXP)
	assert.Equal(t, int64(3500), *got.TotalXP)
	assert.True(t, fetched.Equal(got.FetchedAt))

	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "go-reloaded", got.Transactions[0].Object.Name)
	assert.Nil(t, got.Transactions[1].Object)

	require.Len(t, got.Progress, 2)
	require.NotNil(t, got.Progress[0].Grade)
	assert.InDelta(t, 1.5, *got.Progress[0].Grade, 1e-9)
	assert.Nil(t, got.Progress[1].Grade)

	require.Len(t, got.Results, 2)
	assert.Nil(t, got.Results[1].Grade)
}

func TestSaveSnapshot_Replaces(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveSnapshot(ctx, sampleSnapshot(42, time.Now())))
	snap := sampleSnapshot(42, time.Now())
	snap.Transactions = snap.Transactions[:1]
	snap.Results = nil
	require.NoError(t, c.SaveSnapshot(ctx, snap))

	got, err := c.LoadSnapshot(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 1)
	assert.Nil(t, got.Results, "results not fetched stay nil")

	n, err := c.SnapshotCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveSnapshot_EmptySetsStayEmpty(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	snap := source.Snapshot{
		Profile:      source.RawProfile{ID: 1, Login: "new"},
		Transactions: []source.RawTransaction{},
		Progress:     []source.RawProgress{},
		FetchedAt:    time.Now(),
	}
	require.NoError(t, c.SaveSnapshot(ctx, snap))

	got, err := c.LoadSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, got.Transactions)
	assert.NotNil(t, got.Progress)
	assert.Nil(t, got.TotalXP)
}

func TestLoadLatest(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	_, err := c.LoadLatest(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	require.NoError(t, c.SaveSnapshot(ctx, sampleSnapshot(1, older)))
	require.NoError(t, c.SaveSnapshot(ctx, sampleSnapshot(2, newer)))

	got, err := c.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Profile.ID)

	require.NoError(t, c.Clear(ctx))
	_, err = c.LoadSnapshot(ctx, 2)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
