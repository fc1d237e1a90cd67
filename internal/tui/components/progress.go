package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// LevelBar renders progress through the current level (0-100) with a
// trailing percentage.
func LevelBar(percent float64, width int) string {
	t := theme.Active
	pct := clampPct(percent / 100)

	bar := progress.New(
		progress.WithGradient(string(t.Accent), string(t.AccentBright)),
		progress.WithWidth(max(width-5, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return bar.ViewAs(pct) + space + pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}

// SkillBar renders one category row: name, bar scaled against peak, and
// its percentage of the distribution.
func SkillBar(name string, value, peak float64, percentage int, color lipgloss.Color, labelW, barW int, selected bool) string {
	t := theme.Active

	frac := 0.0
	if peak > 0 {
		frac = clampPct(value / peak)
	}
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(barW, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.SurfaceBright)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	marker := "  "
	if selected {
		label = label.Foreground(t.AccentBright).Bold(true)
		marker = "▸ "
	}
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return label.Render(marker+fmt.Sprintf("%-*s", labelW, name)) +
		space +
		bar.ViewAs(frac) +
		space +
		pctStyle.Render(fmt.Sprintf("%3d%%", percentage))
}

// ColorForRatio colors an audit ratio: red below 0.8, yellow below 1.0,
// green otherwise.
func ColorForRatio(r float64) lipgloss.Color {
	t := theme.Active
	switch {
	case r < 0.8:
		return t.Red
	case r < 1.0:
		return t.Yellow
	default:
		return t.Green
	}
}

func clampPct(f float64) float64 {
	return min(max(f, 0), 1)
}
