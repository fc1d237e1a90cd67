package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Timeline", Key: 't', KeyPos: 0},
	{Name: "Skills", Key: 's', KeyPos: 0},
	{Name: "Projects", Key: 'p', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

// TabVisualWidth returns the rendered width of a tab label, matching
// RenderTabBar.
func TabVisualWidth(tab Tab, active bool) int {
	w := len(tab.Name) + 2
	if !active && tab.KeyPos < 0 {
		w += 3 // "[x]"
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	base := lipgloss.NewStyle().Background(t.Surface)
	active := base.Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true).Padding(0, 1)
	inactive := base.Foreground(t.TextMuted)
	key := base.Foreground(t.Accent).Bold(true)
	sep := base.Foreground(t.Border).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = active.Render(tab.Name)
			continue
		}
		var s strings.Builder
		s.WriteString(inactive.Render(" "))
		if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
			s.WriteString(inactive.Render(tab.Name[:tab.KeyPos]))
			s.WriteString(key.Render(tab.Name[tab.KeyPos : tab.KeyPos+1]))
			s.WriteString(inactive.Render(tab.Name[tab.KeyPos+1:]))
		} else {
			s.WriteString(inactive.Render(tab.Name))
			s.WriteString(inactive.Render("[") + key.Render(string(tab.Key)) + inactive.Render("]"))
		}
		s.WriteString(inactive.Render(" "))
		parts[i] = s.String()
	}

	row := strings.Join(parts, sep)
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, row,
		lipgloss.WithWhitespaceBackground(t.Surface))
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
