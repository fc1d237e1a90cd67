package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/xpdash/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func tx(t *testing.T, amount int64, date, name string) model.XPTransaction {
	t.Helper()
	return model.XPTransaction{Amount: amount, OccurredAt: mustDate(t, date), SubjectName: name, SubjectType: "project"}
}

func cumulatives(ts model.TimeSeries) []int64 {
	out := make([]int64, len(ts.Points))
	for i, p := range ts.Points {
		out[i] = p.Cumulative
	}
	return out
}

func TestBuildSeries_MonthlyGrouping(t *testing.T) {
	ts := BuildSeries([]model.XPTransaction{
		tx(t, 1000, "2024-01-05", ""),
		tx(t, 500, "2024-01-20", ""),
		tx(t, 2000, "2024-02-10", ""),
	})

	assert.Equal(t, []int64{1000, 1500, 3500}, cumulatives(ts))
	assert.Equal(t, []model.MonthlyBucket{
		{MonthKey: "2024-01", Sum: 1500},
		{MonthKey: "2024-02", Sum: 2000},
	}, ts.MonthlyBuckets)
	assert.InDelta(t, 3500.0/6, ts.FixedWindowAverage, 1e-9)
	assert.InDelta(t, 1750, ts.DistinctMonthAverage, 1e-9)
	assert.Equal(t, int64(3500), ts.Total())
}

func TestBuildSeries_SortsStablyWithoutMutatingInput(t *testing.T) {
	input := []model.XPTransaction{
		tx(t, 300, "2024-03-01", "c"),
		tx(t, 100, "2024-01-01", "a"),
		tx(t, 200, "2024-01-01", "b"),
		tx(t, -50, "2024-02-15", "penalty"),
	}

	ts := BuildSeries(input)

	require.Len(t, ts.Points, 4)
	assert.Equal(t, []int64{100, 200, -50, 300}, []int64{
		ts.Points[0].Delta, ts.Points[1].Delta, ts.Points[2].Delta, ts.Points[3].Delta,
	})
	assert.Equal(t, []int64{100, 300, 250, 550}, cumulatives(ts))
	assert.Equal(t, int64(300), input[0].Amount, "input order untouched")

	for i := 1; i < len(ts.Points); i++ {
		assert.False(t, ts.Points[i].Date.Before(ts.Points[i-1].Date))
	}
}

func TestBuildSeries_LastCumulativeEqualsDeltaSum(t *testing.T) {
	input := []model.XPTransaction{
		tx(t, 10, "2023-12-31", ""),
		tx(t, 25, "2024-06-01", ""),
		tx(t, -5, "2024-01-01", ""),
		tx(t, 70, "2023-11-11", ""),
	}
	ts := BuildSeries(input)

	var sum int64
	for _, p := range ts.Points {
		sum += p.Delta
	}
	assert.Equal(t, sum, ts.Points[len(ts.Points)-1].Cumulative)
}

func TestBuildSeries_Empty(t *testing.T) {
	for _, in := range [][]model.XPTransaction{nil, {}} {
		ts := BuildSeries(in)
		assert.NotNil(t, ts.Points)
		assert.NotNil(t, ts.MonthlyBuckets)
		assert.Empty(t, ts.Points)
		assert.Empty(t, ts.MonthlyBuckets)
		assert.Zero(t, ts.FixedWindowAverage)
		assert.Zero(t, ts.DistinctMonthAverage)
	}
}

func TestBuildSeries_SkipsZeroTimestamps(t *testing.T) {
	ts := BuildSeries([]model.XPTransaction{
		{Amount: 999},
		tx(t, 100, "2024-01-01", ""),
	})
	assert.Equal(t, []int64{100}, cumulatives(ts))
}

func TestWithTotal(t *testing.T) {
	ts := BuildSeries([]model.XPTransaction{
		tx(t, 100, "2024-01-01", ""),
		tx(t, 100, "2024-02-01", ""),
	})
	ts = WithTotal(ts, 1200)

	assert.InDelta(t, 200, ts.FixedWindowAverage, 1e-9)
	assert.InDelta(t, 600, ts.DistinctMonthAverage, 1e-9)
	assert.Equal(t, int64(200), ts.Total(), "points are not rewritten")
}

func TestFilterSince(t *testing.T) {
	txs := []model.XPTransaction{
		tx(t, 1, "2024-01-01", ""),
		tx(t, 2, "2024-02-01", ""),
		tx(t, 3, "2024-03-01", ""),
	}
	got := FilterSince(txs, mustDate(t, "2024-02-01"))
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].Amount)
}

func TestAggregateProjects(t *testing.T) {
	got := AggregateProjects([]model.XPTransaction{
		tx(t, 100, "2024-01-01", "ascii-art"),
		tx(t, 400, "2024-02-01", "lem-in"),
		tx(t, 300, "2024-03-01", "ascii-art"),
		tx(t, 400, "2024-01-15", "forum"),
		tx(t, 50, "2024-01-15", ""),
	})

	require.Len(t, got, 3)
	assert.Equal(t, "ascii-art", got[0].Name)
	assert.Equal(t, int64(400), got[0].XP)
	assert.Equal(t, 2, got[0].Transactions)
	assert.Equal(t, mustDate(t, "2024-03-01"), got[0].LastAt)
	assert.Equal(t, "forum", got[1].Name, "ties sort by name")
	assert.Equal(t, "lem-in", got[2].Name)
}
