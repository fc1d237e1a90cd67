package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/pipeline"
)

var flagSkillsTop int

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Skill distribution across categories",
	RunE:  runSkills,
}

func init() {
	skillsCmd.Flags().IntVar(&flagSkillsTop, "top", 0, "Recent projects listed per category (default from config)")
	rootCmd.AddCommand(skillsCmd)
}

func runSkills(cmd *cobra.Command, _ []string) error {
	dash, _, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	cats := dash.Skills.Categories
	if len(cats) == 0 {
		fmt.Println("\n  No categories configured.")
		return nil
	}

	top := flagSkillsTop
	if top <= 0 {
		top = appCfg.General.TopProjects
	}

	labelWidth := 0
	peak := 0.0
	for _, c := range cats {
		labelWidth = max(labelWidth, len(c.Name))
		peak = max(peak, c.AccumulatedValue)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SKILLS"))
	fmt.Println()
	for _, c := range cats {
		fmt.Println(cli.RenderHorizontalBar(c.Name, labelWidth, c.AccumulatedValue, peak, 30,
			fmt.Sprintf("%3d%%  %s", c.Percentage, cli.FormatGrade(c.AccumulatedValue))))
	}
	fmt.Println()

	for _, c := range cats {
		projects := pipeline.TopProjects(c, top)
		if len(projects) == 0 {
			continue
		}
		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{
				truncate(p.SubjectName, 24),
				cli.FormatGrade(p.Grade),
				cli.FormatDate(p.Date),
				strings.Join(p.OtherCategories, ", "),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("%s  (%d projects)", c.Name, len(c.Projects)),
			Headers: []string{"Project", "Grade", "Date", "Also"},
			Rows:    rows,
		}))
		fmt.Println()
	}
	return nil
}
