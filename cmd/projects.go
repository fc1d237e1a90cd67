package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
)

var flagProjectsLimit int

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Project XP ranking",
	RunE:  runProjects,
}

func init() {
	projectsCmd.Flags().IntVar(&flagProjectsLimit, "limit", 20, "Max projects shown (0 = all)")
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	dash, _, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	projects := dash.Projects
	if len(projects) == 0 {
		fmt.Println("\n  No project XP found.")
		return nil
	}
	if flagProjectsLimit > 0 && len(projects) > flagProjectsLimit {
		projects = projects[:flagProjectsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  %d with XP", len(dash.Projects))))
	fmt.Println()

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			truncate(p.Name, 24),
			p.Type,
			cli.FormatXP(p.XP),
			cli.FormatNumber(int64(p.Transactions)),
			cli.FormatDate(p.LastAt),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Type", "XP", "Txns", "Last"},
		Rows:    rows,
	}))
	return nil
}
