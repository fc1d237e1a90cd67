package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/tui/components"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

const (
	settingsFieldTheme = iota
	settingsFieldRecentDays
	settingsFieldTopProjects
	settingsFieldCacheTTL
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

// loadConfigOrDefault loads config, returning defaults on error so the
// TUI can always start.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := loadConfigOrDefault()
	a.settings.saved = false

	// Theme cycles in place.
	if a.settings.cursor == settingsFieldTheme {
		next := theme.Next(cfg.Appearance.Theme)
		cfg.Appearance.Theme = next.Name
		theme.SetActive(next.Name)
		a.settings.saveErr = config.Save(cfg)
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	}

	ti := textinput.New()
	ti.CharLimit = 6
	ti.Width = 10
	switch a.settings.cursor {
	case settingsFieldRecentDays:
		ti.Placeholder = "180"
		ti.SetValue(strconv.Itoa(cfg.General.RecentDays))
	case settingsFieldTopProjects:
		ti.Placeholder = "5"
		ti.SetValue(strconv.Itoa(cfg.General.TopProjects))
	case settingsFieldCacheTTL:
		ti.Placeholder = "15"
		ti.SetValue(strconv.Itoa(cfg.General.CacheTTLMinutes))
	}
	ti.Focus()

	a.settings.editing = true
	a.settings.input = ti
	return a, textinput.Blink
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited field, persists it and applies it to
// the running dashboard.
func (a *App) settingsSave() {
	n, err := strconv.Atoi(strings.TrimSpace(a.settings.input.Value()))
	if err != nil || n <= 0 {
		a.settings.saveErr = errors.New("enter a positive whole number")
		return
	}

	cfg := loadConfigOrDefault()
	switch a.settings.cursor {
	case settingsFieldRecentDays:
		cfg.General.RecentDays = n
		a.opts.Aggregate.RecentDays = n
		a.recompute()
	case settingsFieldTopProjects:
		cfg.General.TopProjects = n
		a.opts.TopProjects = n
	case settingsFieldCacheTTL:
		cfg.General.CacheTTLMinutes = n
	}
	a.settings.saveErr = config.Save(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := loadConfigOrDefault()

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selValue := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selLabel := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	accent := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	green := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	fields := []struct{ label, value string }{
		{"Theme", cfg.Appearance.Theme},
		{"Recent days", strconv.Itoa(a.recentDays())},
		{"Top projects", strconv.Itoa(a.opts.TopProjects)},
		{"Cache TTL", fmt.Sprintf("%d min", cfg.General.CacheTTLMinutes)},
	}

	inner := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(marker.Render("▸ "))
			form.WriteString(accent.Render(fmt.Sprintf("%-16s ", f.label)))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			row := marker.Render("▸ ") +
				selLabel.Render(fmt.Sprintf("%-16s ", f.label+":")) +
				selValue.Render(f.value)
			form.WriteString(row)
			if pad := inner - lipgloss.Width(row); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		default:
			form.WriteString(label.Render("  " + fmt.Sprintf("%-16s ", f.label+":")))
			form.WriteString(value.Render(f.value))
		}
		form.WriteString("\n")
	}

	switch {
	case a.settings.saveErr != nil:
		form.WriteString("\n")
		form.WriteString(warn.Render("Save failed: " + a.settings.saveErr.Error()))
	case a.settings.saved:
		form.WriteString("\n")
		form.WriteString(green.Render("Saved"))
	}
	form.WriteString("\n")
	form.WriteString(label.Render("[j/k] navigate  [Enter] edit / next theme  [Esc] cancel"))

	info := [][2]string{
		{"Learner", a.dash.Profile.DisplayName()},
		{"Transactions", cli.FormatNumber(int64(a.dash.Totals.ActivityCount))},
		{"Fetched", cli.FormatRelative(a.dash.FetchedAt, a.now())},
		{"Load time", fmt.Sprintf("%.1fs", a.loadTime.Seconds())},
		{"Config file", config.ConfigPath()},
	}
	if a.result != nil && a.result.FromCache {
		info = append(info, [2]string{"Source", "cache"})
	}

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("Session", components.KeyValueLines(info, inner), cw)
}
