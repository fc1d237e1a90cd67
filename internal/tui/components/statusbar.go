package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	Login       string
	DataAge     string // e.g. "3 minutes ago"
	Stale       bool
	Refreshing  bool
	AutoRefresh bool
	Warnings    int
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Background(t.Surface)
	muted := base.Foreground(t.TextMuted)
	dim := base.Foreground(t.TextDim)
	accent := base.Foreground(t.Accent).Bold(true)
	warn := base.Foreground(t.Orange).Bold(true)

	left := muted.Render(" [?]help  [r]efresh  [q]uit")

	var right []string
	if info.Refreshing {
		right = append(right, accent.Render("refreshing…"))
	}
	if info.Stale {
		right = append(right, warn.Render("offline"))
	}
	if info.Warnings > 0 {
		right = append(right, warn.Render("partial data"))
	}
	if info.AutoRefresh {
		right = append(right, dim.Render("auto"))
	}
	if info.Login != "" {
		right = append(right, accent.Render(info.Login))
	}
	if info.DataAge != "" {
		right = append(right, dim.Render("data "+info.DataAge))
	}
	r := strings.Join(right, dim.Render("  ")) + base.Render(" ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(r), 0)
	return left + base.Render(strings.Repeat(" ", gap)) + r
}
