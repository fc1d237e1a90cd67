package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "XP, level and velocity summary",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	dash, _, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	t := dash.Totals
	if t.ActivityCount == 0 && t.CompletedProjectCount == 0 {
		fmt.Println("\n  No XP or completed projects yet.")
		fmt.Println("  Finish a project on the platform, then come back!")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("XP SUMMARY  " + dash.Profile.DisplayName()))
	fmt.Println()

	rows := [][]string{
		{"Total XP", cli.FormatXP(t.TotalXP)},
		{"Level", fmt.Sprintf("%d", t.Level)},
		{"Level range", fmt.Sprintf("%s - %s", cli.FormatXP(t.ThresholdLow), cli.FormatXP(t.ThresholdHigh))},
		{"Progress", cli.FormatPercent(t.ProgressPercent)},
		{"Next milestone", fmt.Sprintf("level %d", t.NextMilestone)},
		{"Completed projects", cli.FormatNumber(int64(t.CompletedProjectCount))},
		{"XP transactions", cli.FormatNumber(int64(t.ActivityCount))},
		{"Avg / month (6 mo)", cli.FormatXP(int64(dash.Series.FixedWindowAverage))},
		{"Avg / active month", cli.FormatXP(int64(dash.Series.DistinctMonthAverage))},
		{fmt.Sprintf("Last %dd", appCfg.General.RecentDays), cli.FormatXP(dash.Recent.Total())},
	}
	if dash.Audits.Total > 0 {
		rows = append(rows, []string{"Audit ratio",
			fmt.Sprintf("%s  (%d/%d passed)", cli.FormatRatio(dash.Audits.Ratio), dash.Audits.Passed, dash.Audits.Total)})
	}
	if best, ok := strongestSkill(dash.Skills); ok {
		rows = append(rows, []string{"Strongest skill", fmt.Sprintf("%s (%d%%)", best.Name, best.Percentage)})
	}
	if dash.Profile.PlatformLevel > 0 && dash.Profile.PlatformLevel != t.Level {
		rows = append(rows, []string{"Platform level", fmt.Sprintf("%d", dash.Profile.PlatformLevel)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	fmt.Printf("  %s\n\n", cli.RenderProgressBar(t.ProgressPercent, 40))

	if !dash.FetchedAt.IsZero() {
		fmt.Printf("  Fetched %s\n\n", cli.FormatRelative(dash.FetchedAt, timeNow()))
	}
	return nil
}

func strongestSkill(d model.SkillDistribution) (model.CategoryStats, bool) {
	var (
		best  model.CategoryStats
		found bool
	)
	for _, c := range d.Categories {
		if c.AccumulatedValue > best.AccumulatedValue {
			best, found = c, true
		}
	}
	return best, found
}
