package pipeline

import (
	"math"
	"sort"
	"strings"

	"github.com/theirongolddev/xpdash/internal/category"
	"github.com/theirongolddev/xpdash/internal/model"
)

// DefaultTopProjects is how many projects a category panel lists.
const DefaultTopProjects = 5

// BuildDistribution spreads each graded project evenly across its
// categories. Every classifier category appears in the result, in rule
// order, even at zero. Records with no subject, a non-positive grade or
// no matching category contribute nothing. Percentages are rounded per
// category and need not sum to exactly 100.
func BuildDistribution(records []model.ProjectProgress, c *category.Classifier) model.SkillDistribution {
	names := c.Categories()
	cats := make([]model.CategoryStats, len(names))
	index := make(map[string]int, len(names))
	for i, name := range names {
		cats[i] = model.CategoryStats{Name: name, Projects: []model.ProjectContribution{}}
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}

	for _, rec := range records {
		if strings.TrimSpace(rec.SubjectName) == "" || !(rec.Grade > 0) {
			continue
		}
		matched := c.Classify(rec.SubjectName)
		if len(matched) == 0 {
			continue
		}
		share := rec.Grade / float64(len(matched))
		for _, name := range matched {
			i, ok := index[name]
			if !ok {
				continue
			}
			cats[i].AccumulatedValue += share
			cats[i].Projects = append(cats[i].Projects, model.ProjectContribution{
				SubjectName:     rec.SubjectName,
				Grade:           rec.Grade,
				Date:            rec.UpdatedAt,
				OtherCategories: without(matched, name),
			})
		}
	}

	var total float64
	for _, cs := range cats {
		total += cs.AccumulatedValue
	}
	for i := range cats {
		if total > 0 {
			cats[i].Percentage = int(math.Round(100 * cats[i].AccumulatedValue / total))
		}
		projects := cats[i].Projects
		sort.SliceStable(projects, func(a, b int) bool {
			if !projects[a].Date.Equal(projects[b].Date) {
				return projects[a].Date.After(projects[b].Date)
			}
			return projects[a].Grade > projects[b].Grade
		})
	}

	return model.SkillDistribution{Categories: cats}
}

// TopProjects returns at most n of the category's projects, newest first.
func TopProjects(cs model.CategoryStats, n int) []model.ProjectContribution {
	if n <= 0 || n >= len(cs.Projects) {
		return cs.Projects
	}
	return cs.Projects[:n]
}

// SummarizeAudits counts passed audits. A grade of 1 or more passes.
func SummarizeAudits(results []model.AuditResult) model.AuditSummary {
	var s model.AuditSummary
	for _, r := range results {
		s.Total++
		if r.Grade >= 1 {
			s.Passed++
		}
	}
	if s.Total > 0 {
		s.Ratio = float64(s.Passed) / float64(s.Total)
	}
	return s
}

func without(list []string, drop string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}
