package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/platform"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Recent days:   %d\n", cfg.General.RecentDays)
	fmt.Printf("    Top projects:  %d\n", cfg.General.TopProjects)
	fmt.Printf("    Cache TTL:     %s\n", cfg.CacheTTL())
	fmt.Printf("    Cache file:    %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println("  [Platform]")
	baseURL := config.GetBaseURL(cfg)
	if baseURL == "" {
		baseURL = platform.DefaultBaseURL + " (default)"
	}
	fmt.Printf("    URL:        %s\n", baseURL)
	if id, _ := config.GetCredentials(cfg); id != "" {
		fmt.Printf("    Identifier: %s\n", id)
	}
	if tok := config.GetToken(cfg); tok != "" {
		fmt.Printf("    Token:      %s\n", maskToken(tok))
	} else {
		fmt.Println("    Token:      not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Categories]")
	switch {
	case cfg.Categories.RulesFile != "":
		fmt.Printf("    Rules file: %s\n", cfg.Categories.RulesFile)
	case len(cfg.Categories.Rules) > 0:
		fmt.Printf("    Inline rules: %d\n", len(cfg.Categories.Rules))
	default:
		fmt.Println("    Built-in rules")
	}
	rs, err := cfg.RuleSet()
	if err != nil {
		fmt.Printf("    Error: %v\n", err)
	} else {
		for _, r := range rs.Rules {
			fmt.Printf("    %-14s %d patterns\n", r.Category, len(r.Patterns))
		}
		fmt.Printf("    Overrides: %d\n", len(rs.Overrides))
	}
	fmt.Println()

	fmt.Println("  Run `xpdash setup` to reconfigure.")
	return nil
}
