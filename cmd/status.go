package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/config"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/platform"
	"github.com/theirongolddev/xpdash/internal/store"
)

var flagStatusCheck bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login, token and cache status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagStatusCheck, "check", false, "Verify the token against the platform")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	now := timeNow()
	baseURL := config.GetBaseURL(appCfg)
	if baseURL == "" {
		baseURL = platform.DefaultBaseURL
	}

	pairs := [][2]string{
		{"Platform", baseURL},
		{"Config", config.ConfigPath()},
	}

	token := config.GetToken(appCfg)
	switch exp, err := platform.TokenExpiry(token); {
	case token == "":
		pairs = append(pairs, [2]string{"Token", "not configured"})
	case err != nil:
		pairs = append(pairs, [2]string{"Token", "malformed (" + maskToken(token) + ")"})
	case now.After(exp):
		pairs = append(pairs, [2]string{"Token", fmt.Sprintf("expired %s", cli.FormatRelative(exp, now))})
	default:
		pairs = append(pairs, [2]string{"Token", fmt.Sprintf("%s, expires %s", maskToken(token), cli.FormatRelative(exp, now))})
	}

	pairs = append(pairs, cacheStatus(cmd.Context(), now)...)

	fmt.Println()
	fmt.Println(cli.RenderTitle("XPDASH STATUS"))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues(pairs))
	fmt.Println()

	if !flagStatusCheck {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	user, err := client.CurrentUser(ctx)
	switch {
	case errors.Is(err, platform.ErrUnauthorized):
		return errors.New("token rejected by the platform: run `xpdash login`")
	case errors.Is(err, platform.ErrRateLimited):
		return errors.New("rate limited by the platform: try again in a minute")
	case err != nil:
		return fmt.Errorf("checking token: %w", err)
	}
	fmt.Printf("  Signed in as %s (id %d)\n\n", user.Login, user.ID)
	return nil
}

func cacheStatus(ctx context.Context, now time.Time) [][2]string {
	path := pipeline.CachePath()
	if _, err := os.Stat(path); err != nil {
		return [][2]string{{"Cache", "empty"}}
	}
	cache, err := store.Open(path)
	if err != nil {
		return [][2]string{{"Cache", "unavailable: " + err.Error()}}
	}
	defer func() { _ = cache.Close() }()

	snap, err := cache.LoadLatest(ctx)
	if err != nil {
		return [][2]string{{"Cache", path}, {"Last fetch", "never"}}
	}
	n, _ := cache.SnapshotCount(ctx)
	return [][2]string{
		{"Cache", fmt.Sprintf("%s (%d learner snapshot(s))", path, n)},
		{"Last fetch", fmt.Sprintf("%s as %s", cli.FormatRelative(snap.FetchedAt, now), snap.Profile.Login)},
	}
}
