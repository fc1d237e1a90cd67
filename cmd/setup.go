package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/platform"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	baseURL := cfg.Platform.BaseURL
	if baseURL == "" {
		baseURL = platform.DefaultBaseURL
	}
	identifier := cfg.Platform.Identifier
	days := strconv.Itoa(cfg.General.RecentDays)
	themeName := cfg.Appearance.Theme

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to xpdash!").
				Description("Track XP, level and skills from the 01 platform."),
			huh.NewInput().
				Title("Platform URL").
				Value(&baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Login or email").
				Description("Used by `xpdash login`. The password is never stored.").
				Value(&identifier),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Recent activity window").
				Options(
					huh.NewOption("30 days", "30"),
					huh.NewOption("90 days", "90"),
					huh.NewOption("180 days", "180"),
					huh.NewOption("365 days", "365"),
				).
				Value(&days),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	cfg.Platform.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if cfg.Platform.BaseURL == platform.DefaultBaseURL {
		cfg.Platform.BaseURL = ""
	}
	cfg.Platform.Identifier = strings.TrimSpace(identifier)
	if n, err := strconv.Atoi(days); err == nil {
		cfg.General.RecentDays = n
	}
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if config.GetToken(cfg) == "" {
		fmt.Println("  Next: run `xpdash login` to sign in.")
	}
	fmt.Println("  Run `xpdash setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "http://") {
		return errors.New("must start with https://")
	}
	return nil
}
