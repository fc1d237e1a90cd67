package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/model"
)

var (
	flagTimelineMonths int
	flagTimelineRecent bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Monthly XP table with cumulative totals",
	RunE:  runTimeline,
}

func init() {
	timelineCmd.Flags().IntVar(&flagTimelineMonths, "months", 0, "Show only the last N months (0 = all)")
	timelineCmd.Flags().BoolVar(&flagTimelineRecent, "recent", false, "Limit to the recent activity window")
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	dash, _, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	series := dash.Series
	title := "XP TIMELINE"
	if flagTimelineRecent {
		series = dash.Recent
		title = fmt.Sprintf("XP TIMELINE  Last %dd", appCfg.General.RecentDays)
	}
	if len(series.MonthlyBuckets) == 0 {
		fmt.Println("\n  No XP transactions found.")
		return nil
	}

	rows := monthlyRows(series)
	if flagTimelineMonths > 0 && len(rows) > flagTimelineMonths {
		rows = rows[len(rows)-flagTimelineMonths:]
	}

	sums := make([]float64, 0, len(series.MonthlyBuckets))
	for _, b := range series.MonthlyBuckets {
		sums = append(sums, float64(b.Sum))
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "XP", "Cumulative"},
		Rows:    rows,
	}))
	fmt.Printf("  %s\n", cli.RenderSparkline(sums))
	fmt.Printf("  Avg/month: %s over 6 months, %s per active month\n\n",
		cli.FormatXP(int64(series.FixedWindowAverage)),
		cli.FormatXP(int64(series.DistinctMonthAverage)))
	return nil
}

// monthlyRows pairs each month with the running total at its end.
func monthlyRows(ts model.TimeSeries) [][]string {
	rows := make([][]string, 0, len(ts.MonthlyBuckets))
	var cum int64
	for _, b := range ts.MonthlyBuckets {
		cum += b.Sum
		rows = append(rows, []string{
			cli.FormatMonth(b.MonthKey),
			cli.FormatSigned(b.Sum),
			cli.FormatNumber(cum),
		})
	}
	return rows
}
