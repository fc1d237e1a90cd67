package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/tui/components"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// skillsState holds the skills tab state.
type skillsState struct {
	cursor int
}

func (a App) renderSkillsTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	cats := a.dash.Skills.Categories
	if len(cats) == 0 {
		return components.ContentCard("Skills", muted.Render("No categories configured"), cw)
	}

	listW, detailW := cw, cw
	if !a.isCompactLayout() {
		listW = max(cw*2/5, 40)
		detailW = cw - listW
	}

	// Category list
	inner := components.CardInnerWidth(listW)
	peak := 0.0
	labelW := 0
	for _, c := range cats {
		peak = max(peak, c.AccumulatedValue)
		labelW = max(labelW, len(c.Name))
	}
	labelW = min(labelW, 18)
	barW := max(inner-labelW-9, 4)

	var list strings.Builder
	for i, c := range cats {
		if i > 0 {
			list.WriteString("\n")
		}
		list.WriteString(components.SkillBar(truncStr(c.Name, labelW), c.AccumulatedValue, peak,
			c.Percentage, t.SeriesColor(i), labelW, barW, i == a.skills.cursor))
	}
	list.WriteString("\n\n")
	list.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("[j/k] select category"))
	listCard := components.ContentCard("Skill distribution", list.String(), listW)

	// Selected category detail
	sel := cats[clampInt(a.skills.cursor, 0, len(cats)-1)]
	detailInner := components.CardInnerWidth(detailW)

	var detail strings.Builder
	detail.WriteString(components.KeyValueLines([][2]string{
		{"Share", fmt.Sprintf("%d%%", sel.Percentage)},
		{"Accumulated grade", cli.FormatGrade(sel.AccumulatedValue)},
		{"Projects", cli.FormatNumber(int64(len(sel.Projects)))},
	}, detailInner))
	detail.WriteString("\n\n")

	top := pipeline.TopProjects(sel, a.opts.TopProjects)
	if len(top) == 0 {
		detail.WriteString(muted.Render("No projects in this category yet"))
	} else {
		header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
		row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
		nameW := clampInt(detailInner-32, 12, 40)
		line := func(name, grade, date, also string) string {
			return fmt.Sprintf("%-*s %6s %10s  %s", nameW, truncStr(name, nameW), grade, date, also)
		}

		detail.WriteString(header.Render(line("Latest projects", "Grade", "Date", "Also")))
		for _, p := range top {
			detail.WriteString("\n")
			also := truncStr(strings.Join(p.OtherCategories, ", "), max(detailInner-nameW-20, 0))
			detail.WriteString(row.Render(line(p.SubjectName, cli.FormatGrade(p.Grade), cli.FormatDate(p.Date), also)))
		}
	}
	detailCard := components.ContentCard(sel.Name, detail.String(), detailW)

	if a.isCompactLayout() {
		return listCard + "\n" + detailCard
	}
	return components.CardRow([]string{listCard, detailCard})
}
