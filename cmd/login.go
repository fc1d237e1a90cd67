package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/platform"
	"github.com/theirongolddev/xpdash/internal/store"
)

var flagLogoutPurge bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a platform token",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored platform token",
	RunE:  runLogout,
}

func init() {
	logoutCmd.Flags().BoolVar(&flagLogoutPurge, "purge-cache", false, "Also delete cached records")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	identifier, password := config.GetCredentials(appCfg)

	if password == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Login or email").
					Value(&identifier).
					Validate(requireNonEmpty("login")),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(requireNonEmpty("password")),
			),
		).WithShowHelp(false)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	client := platform.NewClient(config.GetBaseURL(appCfg), platform.WithLogger(logger))
	token, err := client.Signin(ctx, strings.TrimSpace(identifier), password)
	if err != nil {
		if errors.Is(err, platform.ErrInvalidCredentials) {
			return errors.New("login failed: check your login and password")
		}
		return err
	}

	cfg := appCfg
	prev := cfg.Platform.Identifier
	cfg.Platform.Identifier = strings.TrimSpace(identifier)
	cfg.Platform.Token = token
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	appCfg = cfg

	if accountChanged(prev, cfg.Platform.Identifier) {
		if err := purgeCache(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("  Cleared cached records of %s.\n", prev)
	}

	fmt.Println()
	if exp, err := platform.TokenExpiry(token); err == nil {
		fmt.Printf("  Signed in. Token expires %s.\n", cli.FormatRelative(exp, timeNow()))
	} else {
		fmt.Println("  Signed in.")
	}
	fmt.Printf("  Saved to %s\n\n", config.ConfigPath())
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Platform.Token = ""
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println("  Token removed.")
	if os.Getenv(config.EnvToken) != "" {
		fmt.Printf("  Note: %s is still set in the environment.\n", config.EnvToken)
	}

	if flagLogoutPurge {
		if err := purgeCache(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("  Cached records deleted.")
	}
	return nil
}

// accountChanged reports whether a login switches to a different account
// than the one previously configured. Identifiers compare case-insensitively.
func accountChanged(prev, next string) bool {
	prev = strings.TrimSpace(prev)
	return prev != "" && !strings.EqualFold(prev, strings.TrimSpace(next))
}

func purgeCache(ctx context.Context) error {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() { _ = cache.Close() }()
	if err := cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

func requireNonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
