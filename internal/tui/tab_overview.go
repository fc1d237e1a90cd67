package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/model"
	"github.com/theirongolddev/xpdash/internal/tui/components"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// overviewMonths is how many monthly buckets the overview chart shows.
const overviewMonths = 12

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	d := a.dash
	tot := d.Totals

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	// Row 1: headline metrics
	metrics := []components.Metric{
		{Label: "Total XP", Value: cli.FormatXP(tot.TotalXP), Hint: cli.FormatNumber(int64(tot.ActivityCount)) + " transactions"},
		{Label: "Level", Value: strconv.Itoa(tot.Level), Hint: fmt.Sprintf("next milestone: %d", tot.NextMilestone)},
		{Label: "Completed", Value: cli.FormatNumber(int64(tot.CompletedProjectCount)), Hint: "projects"},
		{Label: "Audit ratio", Value: auditValue(d.Audits.Total, d.Audits.Ratio), Hint: fmt.Sprintf("%d / %d passed", d.Audits.Passed, d.Audits.Total)},
	}
	if a.isCompactLayout() {
		metrics = metrics[:3]
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: level progress
	inner := components.CardInnerWidth(cw)
	toNext := tot.ThresholdHigh - tot.TotalXP
	levelBody := components.LevelBar(tot.ProgressPercent, inner) + "\n" +
		muted.Render(fmt.Sprintf("%s of %s · %s to level %d",
			cli.FormatXP(tot.TotalXP-tot.ThresholdLow),
			cli.FormatXP(tot.ThresholdHigh-tot.ThresholdLow),
			cli.FormatXP(max(toNext, 0)),
			tot.Level+1))
	b.WriteString(components.ContentCard(fmt.Sprintf("Level %d", tot.Level), levelBody, cw))
	b.WriteString("\n")

	// Row 3: monthly chart beside top skills (stacked when compact)
	buckets := d.Series.MonthlyBuckets
	if len(buckets) > overviewMonths {
		buckets = buckets[len(buckets)-overviewMonths:]
	}
	values := make([]float64, len(buckets))
	labels := make([]string, len(buckets))
	for i, mb := range buckets {
		values[i] = float64(mb.Sum)
		labels[i] = monthLabel(mb.MonthKey)
	}

	chartW, skillsW := cw, cw
	if !a.isCompactLayout() {
		widths := components.LayoutRow(cw, 2)
		chartW, skillsW = widths[0], widths[1]
	}

	chartBody := muted.Render("No XP yet")
	if len(values) > 0 {
		chartBody = components.BarChart(values, labels, t.Blue, components.CardInnerWidth(chartW), 8)
	}
	chartCard := components.ContentCard("XP per month", chartBody, chartW)
	skillsCard := components.ContentCard("Top skills", a.topSkillsBody(components.CardInnerWidth(skillsW), 5), skillsW)

	if a.isCompactLayout() {
		b.WriteString(chartCard)
		b.WriteString("\n")
		b.WriteString(skillsCard)
	} else {
		b.WriteString(components.CardRow([]string{chartCard, skillsCard}))
	}
	b.WriteString("\n")

	// Row 4: averages
	avg := components.KeyValueLines([][2]string{
		{"Monthly average (6 mo window)", cli.FormatXP(int64(d.Series.FixedWindowAverage))},
		{"Monthly average (active months)", cli.FormatXP(int64(d.Series.DistinctMonthAverage))},
		{fmt.Sprintf("Last %d days", a.recentDays()), cli.FormatXP(d.Recent.Total())},
	}, inner)
	b.WriteString(components.ContentCard("Pace", avg, cw))

	return b.String()
}

// topSkillsBody renders up to n categories with a share of the distribution.
func (a App) topSkillsBody(width, n int) string {
	t := theme.Active
	cats := slices.Clone(a.dash.Skills.Categories)
	slices.SortStableFunc(cats, func(x, y model.CategoryStats) int {
		return cmp.Compare(y.AccumulatedValue, x.AccumulatedValue)
	})
	if len(cats) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No graded projects")
	}

	peak := 0.0
	labelW := 0
	for _, c := range cats {
		peak = max(peak, c.AccumulatedValue)
		labelW = max(labelW, len(c.Name))
	}
	labelW = min(labelW, 16)
	barW := max(width-labelW-9, 4)

	lines := make([]string, 0, n)
	for i, c := range cats {
		if i >= n || c.AccumulatedValue == 0 {
			break
		}
		lines = append(lines, components.SkillBar(truncStr(c.Name, labelW), c.AccumulatedValue, peak,
			c.Percentage, t.SeriesColor(i), labelW, barW, false))
	}
	return strings.Join(lines, "\n")
}

func auditValue(total int, ratio float64) string {
	if total == 0 {
		return "-"
	}
	return cli.FormatRatio(ratio)
}
