package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// setupValues holds the first-run form results.
type setupValues struct {
	theme      string
	recentDays int
}

var recentDayOptions = []int{30, 90, 180, 365}

// newSetupForm builds the first-run wizard shown after the first load.
func newSetupForm(learner string, vals *setupValues) *huh.Form {
	if vals.theme == "" {
		vals.theme = theme.Active.Name
	}
	if vals.recentDays == 0 {
		vals.recentDays = 180
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}
	dayOpts := make([]huh.Option[int], 0, len(recentDayOptions))
	for _, d := range recentDayOptions {
		dayOpts = append(dayOpts, huh.NewOption(fmt.Sprintf("%d days", d), d))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to xpdash").
				Description(fmt.Sprintf("Signed in as %s.\nPick a couple of defaults; change them later on the Settings tab.", learner)),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
			huh.NewSelect[int]().
				Title("Recent activity window").
				Options(dayOpts...).
				Value(&vals.recentDays),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}

// saveSetupConfig persists the wizard choices and applies them.
func (a *App) saveSetupConfig() error {
	cfg := loadConfigOrDefault()
	if a.setupVals.theme != "" {
		cfg.Appearance.Theme = a.setupVals.theme
		theme.SetActive(a.setupVals.theme)
	}
	if a.setupVals.recentDays > 0 {
		cfg.General.RecentDays = a.setupVals.recentDays
		a.opts.Aggregate.RecentDays = a.setupVals.recentDays
	}
	return config.Save(cfg)
}
