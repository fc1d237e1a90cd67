package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/model"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/tui/components"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

const (
	minTimelineMonths = 3
	maxTimelineMonths = 36
)

// timelineState holds the timeline tab state.
type timelineState struct {
	months int
	recent bool // show the recent window instead of all time
}

// updateTimelineKey handles timeline-only keys and reports whether key
// was consumed.
func (a *App) updateTimelineKey(key string) bool {
	switch key {
	case "m":
		a.timeline.recent = !a.timeline.recent
	case "+", "=":
		a.timeline.months = min(a.timeline.months+3, maxTimelineMonths)
	case "-":
		a.timeline.months = max(a.timeline.months-3, minTimelineMonths)
	default:
		return false
	}
	return true
}

func (a App) activeSeries() model.TimeSeries {
	if a.timeline.recent {
		return a.dash.Recent
	}
	return a.dash.Series
}

func (a App) renderTimelineTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	series := a.activeSeries()
	scope := "all time"
	if a.timeline.recent {
		scope = fmt.Sprintf("last %d days", a.recentDays())
	}

	if len(series.Points) == 0 {
		return components.ContentCard("Timeline · "+scope, muted.Render("No XP in this window"), cw)
	}

	buckets := lastBuckets(series.MonthlyBuckets, a.timeline.months)
	cumulative := monthEndTotals(series)
	cumulative = cumulative[len(cumulative)-len(buckets):]

	sums := make([]float64, len(buckets))
	totals := make([]float64, len(buckets))
	labels := make([]string, len(buckets))
	for i, mb := range buckets {
		sums[i] = float64(mb.Sum)
		totals[i] = float64(cumulative[i])
		labels[i] = monthLabel(mb.MonthKey)
	}

	inner := components.CardInnerWidth(cw)
	var b strings.Builder

	monthly := components.BarChart(sums, labels, t.Blue, inner, 8)
	b.WriteString(components.ContentCard(fmt.Sprintf("XP per month · %s", scope), monthly, cw))
	b.WriteString("\n")

	growth := components.BarChart(totals, labels, t.Green, inner, 6)
	b.WriteString(components.ContentCard("Cumulative XP", growth, cw))
	b.WriteString("\n")

	// Month table, newest first
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	line := func(cols ...string) string {
		return fmt.Sprintf("%-10s %12s %12s %8s", cols[0], cols[1], cols[2], cols[3])
	}

	var tb strings.Builder
	tb.WriteString(header.Render(line("Month", "XP", "Total", "Share")))
	total := series.Total()
	for i := len(buckets) - 1; i >= 0; i-- {
		share := 0.0
		if total > 0 {
			share = 100 * float64(buckets[i].Sum) / float64(total)
		}
		tb.WriteString("\n")
		tb.WriteString(row.Render(line(
			cli.FormatMonth(buckets[i].MonthKey),
			cli.FormatXP(buckets[i].Sum),
			cli.FormatXP(cumulative[i]),
			cli.FormatPercent(share),
		)))
	}
	tb.WriteString("\n\n")
	tb.WriteString(dim.Render(fmt.Sprintf("avg %s/mo over 6 months · %s/mo over %d active months",
		cli.FormatXP(int64(series.FixedWindowAverage)),
		cli.FormatXP(int64(series.DistinctMonthAverage)),
		len(series.MonthlyBuckets))))
	tb.WriteString("\n")
	tb.WriteString(dim.Render("[m] all-time / recent  [+/-] months"))
	b.WriteString(components.ContentCard("Months", tb.String(), cw))

	return b.String()
}

// lastBuckets returns at most n trailing buckets.
func lastBuckets(buckets []model.MonthlyBucket, n int) []model.MonthlyBucket {
	if n <= 0 || len(buckets) <= n {
		return buckets
	}
	return buckets[len(buckets)-n:]
}

// monthEndTotals returns the cumulative XP at the close of each monthly
// bucket, aligned with series.MonthlyBuckets.
func monthEndTotals(series model.TimeSeries) []int64 {
	out := make([]int64, 0, len(series.MonthlyBuckets))
	var running int64
	for _, mb := range series.MonthlyBuckets {
		running += mb.Sum
		out = append(out, running)
	}
	return out
}

// monthLabel turns a "2006-01" key into a short axis label.
func monthLabel(key string) string {
	t, err := time.Parse(pipeline.MonthKeyLayout, key)
	if err != nil {
		return key
	}
	if t.Month() == time.January {
		return t.Format("Jan06")
	}
	return t.Format("Jan")
}
