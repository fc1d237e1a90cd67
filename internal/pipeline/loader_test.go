package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/xpdash/internal/source"
	"github.com/theirongolddev/xpdash/internal/store"
)

type fakeFetcher struct {
	calls      atomic.Int64
	fetches    atomic.Int64
	userErr    error
	progErr    error
	resultsErr error
	total      int64
}

func (f *fakeFetcher) CurrentUser(context.Context) (source.RawProfile, error) {
	f.calls.Add(1)
	if f.userErr != nil {
		return source.RawProfile{}, f.userErr
	}
	return source.RawProfile{ID: 7, Login: "jdoe"}, nil
}

func (f *fakeFetcher) FetchProfile(_ context.Context, id int) (source.RawProfile, error) {
	lvl := 4
	return source.RawProfile{ID: id, FirstName: "Jane", LastName: "Doe", Level: &lvl}, nil
}

func (f *fakeFetcher) FetchTotalXP(context.Context, int) (int64, error) {
	return f.total, nil
}

func (f *fakeFetcher) FetchTransactions(context.Context, int) ([]source.RawTransaction, error) {
	f.fetches.Add(1)
	return []source.RawTransaction{
		{Amount: 1000, CreatedAt: "2024-01-05T00:00:00Z", Object: &source.RawObject{Name: "go-reloaded"}},
		{Amount: 500, CreatedAt: "2024-01-20T00:00:00Z", Object: nil},
	}, nil
}

func (f *fakeFetcher) FetchProgress(ctx context.Context, _ int) ([]source.RawProgress, error) {
	if f.progErr != nil {
		return nil, f.progErr
	}
	g := 1.0
	return []source.RawProgress{{Grade: &g, UpdatedAt: "2024-01-05T00:00:00Z", Object: &source.RawObject{Name: "lem-in"}}}, nil
}

func (f *fakeFetcher) FetchResults(context.Context, int) ([]source.RawResult, error) {
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	return nil, nil
}

func TestLoad(t *testing.T) {
	f := &fakeFetcher{total: 9000}
	var (
		mu    sync.Mutex
		calls []int
		last  int
	)
	res, err := Load(context.Background(), f, func(cur, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, cur)
		last = total
	})
	require.NoError(t, err)

	assert.Len(t, calls, fetchSteps)
	assert.Equal(t, fetchSteps, last)
	assert.Equal(t, "jdoe", res.Snapshot.Profile.Login, "login carried from current user")
	assert.Equal(t, "Jane", res.Input.Profile.FirstName)
	require.NotNil(t, res.Input.TrustedTotalXP)
	assert.Equal(t, int64(9000), *res.Input.TrustedTotalXP)
	assert.Len(t, res.Input.Transactions, 1)
	assert.Equal(t, 1, res.ParseErrors)
	assert.Len(t, res.Input.Progress, 1)
	assert.NotNil(t, res.Input.Audits, "empty audit set is present")
	assert.Empty(t, res.Warnings)
	assert.False(t, res.Snapshot.FetchedAt.IsZero())
}

func TestLoad_RequiredFailureFails(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(), &fakeFetcher{progErr: boom}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fetching progress")

	_, err = Load(context.Background(), &fakeFetcher{userErr: boom}, nil)
	require.ErrorIs(t, err, boom)
}

func TestLoad_AuditFailureIsWarning(t *testing.T) {
	res, err := Load(context.Background(), &fakeFetcher{resultsErr: errors.New("nope")}, nil)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Nil(t, res.Input.Audits)
}

func openCache(t *testing.T) *store.Cache {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadWithCache(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)
	f := &fakeFetcher{total: 1500}

	first, err := LoadWithCache(ctx, f, cache, time.Hour, nil)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, int64(1), f.fetches.Load())
	assert.Equal(t, int64(1), f.calls.Load(), "user resolved once per load")

	second, err := LoadWithCache(ctx, f, cache, time.Hour, nil)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.False(t, second.Stale)
	assert.Equal(t, int64(1), f.fetches.Load(), "fresh cache skips the record fetches")
	assert.Equal(t, first.Input.Transactions, second.Input.Transactions)

	third, err := LoadWithCache(ctx, f, cache, 0, nil)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, int64(2), f.fetches.Load())
}

func TestLoadWithCache_IgnoresOtherAccount(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)

	otherTotal := int64(123456)
	require.NoError(t, cache.SaveSnapshot(ctx, source.Snapshot{
		Profile:   source.RawProfile{ID: 99, Login: "previous-account"},
		TotalXP:   &otherTotal,
		FetchedAt: time.Now().UTC(),
	}))

	f := &fakeFetcher{total: 1500}
	res, err := LoadWithCache(ctx, f, cache, time.Hour, nil)
	require.NoError(t, err)

	assert.False(t, res.FromCache)
	assert.Equal(t, 7, res.Snapshot.Profile.ID)
	assert.Equal(t, "jdoe", res.Snapshot.Profile.Login)
	require.NotNil(t, res.Input.TrustedTotalXP)
	assert.Equal(t, int64(1500), *res.Input.TrustedTotalXP)
	assert.Equal(t, int64(1), f.fetches.Load())

	again, err := LoadWithCache(ctx, f, cache, time.Hour, nil)
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.Equal(t, 7, again.Snapshot.Profile.ID)
}

func TestLoadWithCache_ProgressCountsUserStep(t *testing.T) {
	var steps atomic.Int64
	_, err := LoadWithCache(context.Background(), &fakeFetcher{}, openCache(t), 0, func(int, int) {
		steps.Add(1)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(fetchSteps), steps.Load())
}

func TestLoadWithCache_StaleOnFetchError(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)

	_, err := LoadWithCache(ctx, &fakeFetcher{total: 1500}, cache, 0, nil)
	require.NoError(t, err)

	broken := &fakeFetcher{userErr: errors.New("offline")}
	res, err := LoadWithCache(ctx, broken, cache, 0, nil)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Error(t, res.FetchErr)
	require.NotNil(t, res.Input.TrustedTotalXP)
	assert.Equal(t, int64(1500), *res.Input.TrustedTotalXP)

	_, err = LoadWithCache(ctx, broken, openCache(t), 0, nil)
	assert.Error(t, err, "no cache to fall back on")
}

func TestLoadWithCache_FetchFailureUsesOwnSnapshotOnly(t *testing.T) {
	ctx := context.Background()
	cache := openCache(t)

	otherTotal := int64(123456)
	require.NoError(t, cache.SaveSnapshot(ctx, source.Snapshot{
		Profile:   source.RawProfile{ID: 99, Login: "previous-account"},
		TotalXP:   &otherTotal,
		FetchedAt: time.Now().UTC(),
	}))

	broken := &fakeFetcher{progErr: errors.New("timeout")}
	_, err := LoadWithCache(ctx, broken, cache, 0, nil)
	require.Error(t, err, "another account's snapshot is never a fallback")

	_, err = LoadWithCache(ctx, &fakeFetcher{total: 1500}, cache, 0, nil)
	require.NoError(t, err)

	res, err := LoadWithCache(ctx, broken, cache, 0, nil)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, 7, res.Snapshot.Profile.ID)
}
