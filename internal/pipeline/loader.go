package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/xpdash/internal/source"
)

// Fetcher retrieves raw records for one learner. platform.Client
// implements it.
type Fetcher interface {
	CurrentUser(ctx context.Context) (source.RawProfile, error)
	FetchProfile(ctx context.Context, userID int) (source.RawProfile, error)
	FetchTotalXP(ctx context.Context, userID int) (int64, error)
	FetchTransactions(ctx context.Context, userID int) ([]source.RawTransaction, error)
	FetchProgress(ctx context.Context, userID int) ([]source.RawProgress, error)
	FetchResults(ctx context.Context, userID int) ([]source.RawResult, error)
}

// fetchSteps is the number of progress callbacks one Load makes.
const fetchSteps = 6

// LoadResult holds the raw snapshot and the decoded aggregation input.
type LoadResult struct {
	Snapshot    source.Snapshot
	Input       Input
	ParseErrors int
	// Warnings are failures of optional fetches; the load still succeeded.
	Warnings []error
}

// ProgressFunc is called during loading to report progress.
// current is the number of fetches completed so far, total is the total count.
// It may be called from several goroutines at once.
type ProgressFunc func(current, total int)

// Load resolves the current user and then fetches every record set
// concurrently. It returns only once all fetches have finished. A failed
// required fetch cancels the rest and fails the load; a failed audit
// fetch is reported as a warning.
func Load(ctx context.Context, f Fetcher, progressFn ProgressFunc) (*LoadResult, error) {
	user, err := f.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}
	return loadUser(ctx, f, user, progressFn)
}

// loadUser fetches every record set for an already resolved user. The
// resolution counts as the first progress step.
func loadUser(ctx context.Context, f Fetcher, user source.RawProfile, progressFn ProgressFunc) (*LoadResult, error) {
	var done atomic.Int64
	step := func() {
		n := done.Add(1)
		if progressFn != nil {
			progressFn(int(n), fetchSteps)
		}
	}
	step()

	var (
		snap     = source.Snapshot{Profile: user}
		total    int64
		auditErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := f.FetchProfile(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("fetching profile: %w", err)
		}
		if p.Login == "" {
			p.Login = user.Login
		}
		snap.Profile = p
		step()
		return nil
	})
	g.Go(func() error {
		t, err := f.FetchTotalXP(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("fetching total xp: %w", err)
		}
		total = t
		step()
		return nil
	})
	g.Go(func() error {
		txs, err := f.FetchTransactions(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("fetching transactions: %w", err)
		}
		if txs == nil {
			txs = []source.RawTransaction{}
		}
		snap.Transactions = txs
		step()
		return nil
	})
	g.Go(func() error {
		prog, err := f.FetchProgress(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("fetching progress: %w", err)
		}
		if prog == nil {
			prog = []source.RawProgress{}
		}
		snap.Progress = prog
		step()
		return nil
	})
	g.Go(func() error {
		results, err := f.FetchResults(gctx, user.ID)
		if err != nil {
			auditErr = fmt.Errorf("fetching audit results: %w", err)
		} else {
			if results == nil {
				results = []source.RawResult{}
			}
			snap.Results = results
		}
		step()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.TotalXP = &total
	snap.FetchedAt = time.Now().UTC()

	result := FromSnapshot(snap)
	if auditErr != nil {
		result.Warnings = append(result.Warnings, auditErr)
	}
	return result, nil
}

// FromSnapshot decodes a snapshot obtained from the cache or a file.
func FromSnapshot(snap source.Snapshot) *LoadResult {
	pr := source.Decode(snap)
	return &LoadResult{
		Snapshot: snap,
		Input: Input{
			Profile:        pr.Profile,
			Transactions:   pr.Transactions,
			Progress:       pr.Progress,
			Audits:         pr.Audits,
			TrustedTotalXP: snap.TotalXP,
			FetchedAt:      snap.FetchedAt,
		},
		ParseErrors: pr.ParseErrors,
	}
}
