package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/xpdash/internal/source"
	"github.com/theirongolddev/xpdash/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	FromCache bool
	// Stale is set when a refresh failed and an older snapshot was served.
	Stale     bool
	Age       time.Duration
	FetchErr  error
}

// LoadWithCache resolves the signed-in user and serves that user's cached
// snapshot when it is younger than maxAge, otherwise fetches fresh records
// and stores them. If the fetch fails and the user has a cached snapshot,
// it is returned marked Stale. maxAge <= 0 always fetches.
//
// When the user cannot be resolved at all (offline, expired token) the
// newest cached snapshot stands in, since the account is unknown.
func LoadWithCache(ctx context.Context, f Fetcher, cache *store.Cache, maxAge time.Duration, progressFn ProgressFunc) (*CachedLoadResult, error) {
	user, err := f.CurrentUser(ctx)
	if err != nil {
		err = fmt.Errorf("resolving user: %w", err)
		if ctx.Err() != nil {
			return nil, err
		}
		cached, cacheErr := cache.LoadLatest(ctx)
		if cacheErr != nil {
			if errors.Is(cacheErr, store.ErrNoSnapshot) {
				return nil, err
			}
			return nil, fmt.Errorf("reading cache: %w", cacheErr)
		}
		return fromCache(cached, maxAge, err), nil
	}

	cached, cacheErr := cache.LoadSnapshot(ctx, user.ID)
	if cacheErr != nil && !errors.Is(cacheErr, store.ErrNoSnapshot) {
		return nil, fmt.Errorf("reading cache: %w", cacheErr)
	}
	haveCached := cacheErr == nil

	if haveCached && maxAge > 0 && time.Since(cached.FetchedAt) < maxAge {
		return fromCache(cached, maxAge, nil), nil
	}

	fresh, err := loadUser(ctx, f, user, progressFn)
	if err != nil {
		if haveCached && ctx.Err() == nil {
			return fromCache(cached, 0, err), nil
		}
		return nil, err
	}

	if err := cache.SaveSnapshot(ctx, fresh.Snapshot); err != nil {
		fresh.Warnings = append(fresh.Warnings, fmt.Errorf("saving cache: %w", err))
	}
	return &CachedLoadResult{LoadResult: *fresh}, nil
}

// fromCache wraps a cached snapshot. It is Stale when fetchErr is set and
// the snapshot is not younger than maxAge.
func fromCache(snap source.Snapshot, maxAge time.Duration, fetchErr error) *CachedLoadResult {
	age := time.Since(snap.FetchedAt)
	res := &CachedLoadResult{
		LoadResult: *FromSnapshot(snap),
		FromCache:  true,
		Age:        age,
	}
	if fetchErr != nil && (maxAge <= 0 || age >= maxAge) {
		res.Stale = true
		res.FetchErr = fetchErr
	}
	return res
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "xpdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "xpdash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "records.db")
}
