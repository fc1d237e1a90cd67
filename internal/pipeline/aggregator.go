// Package pipeline loads platform records and aggregates them into
// totals, time series and skill distributions.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/xpdash/internal/category"
	"github.com/theirongolddev/xpdash/internal/model"
)

// DefaultRecentDays is the width of the recent-activity window.
const DefaultRecentDays = 180

// ErrMissingInput matches every *MissingInputError.
var ErrMissingInput = errors.New("pipeline: missing required input")

// MissingInputError reports a required record set that was never
// supplied. An empty but present set is not an error.
type MissingInputError struct {
	Set string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("pipeline: missing required input: %s", e.Set)
}

// Is makes errors.Is(err, ErrMissingInput) succeed.
func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// Input is one learner's decoded records. Transactions and Progress are
// required (nil means not fetched); Audits is optional. TrustedTotalXP,
// when set, is used as-is instead of summing Transactions.
type Input struct {
	Profile        model.Profile
	Transactions   []model.XPTransaction
	Progress       []model.ProjectProgress
	Audits         []model.AuditResult
	TrustedTotalXP *int64
	FetchedAt      time.Time
}

// Options controls Aggregate.
type Options struct {
	Classifier *category.Classifier
	RecentDays int
	Now        time.Time
}

// DefaultOptions uses the built-in rule set and a 180 day window.
func DefaultOptions() Options {
	return Options{
		Classifier: category.NewClassifier(category.DefaultRuleSet()),
		RecentDays: DefaultRecentDays,
	}
}

// Aggregate computes every derived metric for one learner.
// The series and skill passes are independent; the level is derived
// from the resulting total.
func Aggregate(in Input, opts Options) (model.Dashboard, error) {
	if in.Transactions == nil {
		return model.Dashboard{}, &MissingInputError{Set: "transactions"}
	}
	if in.Progress == nil {
		return model.Dashboard{}, &MissingInputError{Set: "progress"}
	}
	if opts.Classifier == nil {
		opts.Classifier = category.NewClassifier(category.DefaultRuleSet())
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = DefaultRecentDays
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	series := BuildSeries(in.Transactions)
	total := series.Total()
	if in.TrustedTotalXP != nil {
		total = *in.TrustedTotalXP
		series = WithTotal(series, total)
	}

	since := now.AddDate(0, 0, -opts.RecentDays)
	recent := BuildSeries(FilterSince(in.Transactions, since))

	completed := 0
	for _, p := range in.Progress {
		if strings.TrimSpace(p.SubjectName) != "" && p.Grade > 0 {
			completed++
		}
	}

	return model.Dashboard{
		Profile:   in.Profile,
		Totals:    Summarize(total, completed, len(series.Points)),
		Series:    series,
		Recent:    recent,
		Skills:    BuildDistribution(in.Progress, opts.Classifier),
		Projects:  AggregateProjects(in.Transactions),
		Audits:    SummarizeAudits(in.Audits),
		FetchedAt: in.FetchedAt,
	}, nil
}
