package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/log"
	"github.com/theirongolddev/xpdash/internal/tui"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

var flagAutoRefresh bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&flagAutoRefresh, "auto-refresh", false, "Refetch in the background every cache TTL")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	opts, err := aggregateOptions()
	if err != nil {
		return err
	}
	// Anything written to stderr would tear the alt screen.
	logger = log.Discard()

	theme.SetActive(appCfg.Appearance.Theme)
	// Force TrueColor so background styling always produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		Load:            fetchRecords,
		Aggregate:       opts,
		TopProjects:     appCfg.General.TopProjects,
		RefreshInterval: appCfg.CacheTTL(),
		AutoRefresh:     flagAutoRefresh,
		NeedSetup:       !config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
