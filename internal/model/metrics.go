package model

import "time"

// TotalsSummary holds the headline numbers for one learner.
type TotalsSummary struct {
	TotalXP               int64
	Level                 int
	ThresholdLow          int64
	ThresholdHigh         int64
	ProgressPercent       float64
	NextMilestone         int
	CompletedProjectCount int
	// ActivityCount is the number of dated transactions, len(TimeSeries.Points).
	ActivityCount         int
}

// TimeSeriesPoint is one transaction placed on the cumulative XP curve.
type TimeSeriesPoint struct {
	Date       time.Time
	Delta      int64
	Cumulative int64
}

// MonthlyBucket is the XP earned within one calendar month ("2006-01").
type MonthlyBucket struct {
	MonthKey string
	Sum      int64
}

// TimeSeries holds the cumulative curve and per-month velocity.
// The two averages are intentionally distinct: FixedWindowAverage divides by
// a fixed six-month window, DistinctMonthAverage by the number of non-empty months.
type TimeSeries struct {
	Points               []TimeSeriesPoint
	MonthlyBuckets       []MonthlyBucket
	FixedWindowAverage   float64
	DistinctMonthAverage float64
}

// Total returns the last cumulative value, or 0 for an empty series.
func (ts TimeSeries) Total() int64 {
	if len(ts.Points) == 0 {
		return 0
	}
	return ts.Points[len(ts.Points)-1].Cumulative
}

// ProjectContribution is a project filed under one skill category.
type ProjectContribution struct {
	SubjectName     string
	Grade           float64
	Date            time.Time
	OtherCategories []string
}

// CategoryStats holds one category of the skill distribution.
type CategoryStats struct {
	Name             string
	Percentage       int
	AccumulatedValue float64
	Projects         []ProjectContribution
}

// SkillDistribution holds every configured category in rule order.
type SkillDistribution struct {
	Categories []CategoryStats
}

// Category returns the named category and whether it exists.
func (sd SkillDistribution) Category(name string) (CategoryStats, bool) {
	for _, c := range sd.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryStats{}, false
}

// AuditSummary holds pass/fail counts for audit results.
type AuditSummary struct {
	Total  int
	Passed int
	Ratio  float64
}

// Dashboard is everything the renderers need for one load.
type Dashboard struct {
	Profile   Profile
	Totals    TotalsSummary
	Series    TimeSeries
	Recent    TimeSeries
	Skills    SkillDistribution
	Projects  []ProjectXP
	Audits    AuditSummary
	FetchedAt time.Time
}

// ProjectXP is the XP earned from one subject.
type ProjectXP struct {
	Name         string
	Type         string
	XP           int64
	Transactions int
	LastAt       time.Time
}
