package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/model"
	"github.com/theirongolddev/xpdash/internal/tui/components"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// projectsState holds the projects tab state.
type projectsState struct {
	cursor      int
	offset      int
	searching   bool
	searchInput textinput.Model
	query       string
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "project name or type"
	ti.CharLimit = 100
	ti.Width = 40
	return ti
}

// filteredProjects returns projects matching the current search query.
func (a App) filteredProjects() []model.ProjectXP {
	return filterProjects(a.dash.Projects, a.projects.query)
}

// filterProjects keeps projects whose name or type contains query,
// ignoring case.
func filterProjects(projects []model.ProjectXP, query string) []model.ProjectXP {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return projects
	}
	var out []model.ProjectXP
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Type), q) {
			out = append(out, p)
		}
	}
	return out
}

// updateProjectsKey handles projects-only keys.
func (a App) updateProjectsKey(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.filteredProjects())
	half := max((a.height-scrollOverhead)/2, 1)

	switch key {
	case "/":
		a.projects.searching = true
		a.projects.searchInput = newSearchInput()
		a.projects.searchInput.SetValue(a.projects.query)
		a.projects.searchInput.Focus()
		return a, textinput.Blink, true
	case "esc":
		if a.projects.query == "" {
			return a, nil, false
		}
		a.projects.query = ""
		a.projects.cursor, a.projects.offset = 0, 0
	case "g":
		a.projects.cursor, a.projects.offset = 0, 0
	case "G":
		a.projects.cursor = max(n-1, 0)
	case "ctrl+d":
		a.projects.cursor = clampInt(a.projects.cursor+half, 0, max(n-1, 0))
	case "ctrl+u":
		a.projects.cursor = clampInt(a.projects.cursor-half, 0, max(n-1, 0))
	default:
		return a, nil, false
	}
	return a, nil, true
}

// updateProjectsSearch handles key events while in search mode.
func (a App) updateProjectsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.projects.query = strings.TrimSpace(a.projects.searchInput.Value())
		a.projects.searching = false
		a.projects.cursor, a.projects.offset = 0, 0
		return a, nil
	case "esc":
		a.projects.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.projects.searchInput, cmd = a.projects.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderProjectsTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright).Bold(true)

	projects := a.filteredProjects()
	inner := components.CardInnerWidth(cw)

	title := fmt.Sprintf("Projects (%d)", len(projects))
	if a.projects.query != "" {
		title = fmt.Sprintf("Projects matching %q (%d)", a.projects.query, len(projects))
	}

	var b strings.Builder
	if a.projects.searching {
		b.WriteString(header.Render("/ "))
		b.WriteString(a.projects.searchInput.View())
		b.WriteString("\n\n")
	}

	if len(projects) == 0 {
		b.WriteString(muted.Render("No projects found"))
		return components.ContentCard(title, b.String(), cw)
	}

	nameW := clampInt(inner-52, 16, 60)
	line := func(name, typ, xp, n, last string) string {
		s := fmt.Sprintf("%-*s %-10s %10s %6s %14s", nameW, truncStr(name, nameW), truncStr(typ, 10), xp, n, last)
		return fmt.Sprintf("%-*s", inner, s)
	}

	b.WriteString(header.Render(line("Project", "Type", "XP", "Tx", "Last XP")))
	b.WriteString("\n")

	visible := projectRows(h, a.projects.searching)
	offset := visibleOffset(a.projects.cursor, a.projects.offset, visible)
	end := min(offset+visible, len(projects))

	now := a.now()
	for i := offset; i < end; i++ {
		p := projects[i]
		text := line(p.Name, p.Type, cli.FormatXP(p.XP), cli.FormatNumber(int64(p.Transactions)), cli.FormatRelative(p.LastAt, now))
		if i == a.projects.cursor {
			b.WriteString(selected.Render(text))
		} else {
			b.WriteString(row.Render(text))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("%d-%d of %d  [/] search  [esc] clear  [g/G] top/bottom", offset+1, end, len(projects))))

	return components.ContentCard(title, b.String(), cw)
}

// projectRows is how many list rows fit in a content area of height h:
// card border (2) + title (1) + header (1) + footer (2), plus the search row.
func projectRows(h int, searching bool) int {
	rows := max(h-6, 3)
	if searching {
		rows = max(rows-2, 3)
	}
	return rows
}

// visibleOffset scrolls the window so cursor stays inside it.
func visibleOffset(cursor, offset, visible int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visible {
		return cursor - visible + 1
	}
	return offset
}
