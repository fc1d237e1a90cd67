package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/xpdash/internal/model"
)

// FixedWindowMonths is the divisor behind TimeSeries.FixedWindowAverage.
const FixedWindowMonths = 6

// MonthKeyLayout formats a MonthlyBucket key.
const MonthKeyLayout = "2006-01"

// BuildSeries turns transactions into a cumulative curve and monthly
// buckets. The input slice is not modified. Transactions with a zero
// timestamp are skipped. Equal timestamps keep their input order.
func BuildSeries(txs []model.XPTransaction) model.TimeSeries {
	sorted := make([]model.XPTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.OccurredAt.IsZero() {
			continue
		}
		sorted = append(sorted, tx)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	ts := model.TimeSeries{
		Points:         make([]model.TimeSeriesPoint, 0, len(sorted)),
		MonthlyBuckets: []model.MonthlyBucket{},
	}

	var cumulative int64
	for _, tx := range sorted {
		cumulative += tx.Amount
		ts.Points = append(ts.Points, model.TimeSeriesPoint{
			Date:       tx.OccurredAt,
			Delta:      tx.Amount,
			Cumulative: cumulative,
		})

		key := tx.OccurredAt.UTC().Format(MonthKeyLayout)
		if n := len(ts.MonthlyBuckets); n > 0 && ts.MonthlyBuckets[n-1].MonthKey == key {
			ts.MonthlyBuckets[n-1].Sum += tx.Amount
		} else {
			ts.MonthlyBuckets = append(ts.MonthlyBuckets, model.MonthlyBucket{MonthKey: key, Sum: tx.Amount})
		}
	}

	return WithTotal(ts, cumulative)
}

// WithTotal recomputes both monthly averages against total, which may be
// a trusted figure from the platform rather than the series sum.
func WithTotal(ts model.TimeSeries, total int64) model.TimeSeries {
	ts.FixedWindowAverage = float64(total) / FixedWindowMonths
	ts.DistinctMonthAverage = 0
	if n := len(ts.MonthlyBuckets); n > 0 {
		ts.DistinctMonthAverage = float64(total) / float64(n)
	}
	return ts
}

// FilterSince returns the transactions at or after since.
func FilterSince(txs []model.XPTransaction, since time.Time) []model.XPTransaction {
	out := make([]model.XPTransaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.OccurredAt.Before(since) {
			out = append(out, tx)
		}
	}
	return out
}

// AggregateProjects sums XP per subject, largest first. Ties sort by name.
func AggregateProjects(txs []model.XPTransaction) []model.ProjectXP {
	byName := make(map[string]*model.ProjectXP)
	for _, tx := range txs {
		if tx.SubjectName == "" {
			continue
		}
		p, ok := byName[tx.SubjectName]
		if !ok {
			p = &model.ProjectXP{Name: tx.SubjectName, Type: tx.SubjectType}
			byName[tx.SubjectName] = p
		}
		p.XP += tx.Amount
		p.Transactions++
		if tx.OccurredAt.After(p.LastAt) {
			p.LastAt = tx.OccurredAt
		}
	}

	projects := make([]model.ProjectXP, 0, len(byName))
	for _, p := range byName {
		projects = append(projects, *p)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].XP != projects[j].XP {
			return projects[i].XP > projects[j].XP
		}
		return projects[i].Name < projects[j].Name
	})
	return projects
}
