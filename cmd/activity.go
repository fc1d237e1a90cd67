package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/pipeline"
)

var flagActivityLimit int

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Recent XP transactions",
	RunE:  runActivity,
}

func init() {
	activityCmd.Flags().IntVar(&flagActivityLimit, "limit", 25, "Max transactions shown (0 = all)")
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, _ []string) error {
	dash, res, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	days := appCfg.General.RecentDays
	if days <= 0 {
		days = pipeline.DefaultRecentDays
	}
	recent := pipeline.FilterSince(res.Input.Transactions, timeNow().AddDate(0, 0, -days))
	if len(recent) == 0 {
		fmt.Printf("\n  No XP earned in the last %d days.\n", days)
		return nil
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].OccurredAt.After(recent[j].OccurredAt)
	})
	shown := recent
	if flagActivityLimit > 0 && len(shown) > flagActivityLimit {
		shown = shown[:flagActivityLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ACTIVITY  Last %dd", days)))
	fmt.Println()

	rows := make([][]string, 0, len(shown))
	for _, tx := range shown {
		rows = append(rows, []string{
			tx.OccurredAt.Local().Format("2006-01-02 15:04"),
			truncate(tx.SubjectName, 24),
			cli.FormatSigned(tx.Amount),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"When", "Project", "XP"},
		Rows:    rows,
	}))

	fmt.Printf("  %s earned across %d transactions, last one %s\n\n",
		cli.FormatXP(dash.Recent.Total()),
		len(recent),
		cli.FormatRelative(recent[0].OccurredAt, timeNow()))
	return nil
}
