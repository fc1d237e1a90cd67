package pipeline

import (
	"math"

	"github.com/theirongolddev/xpdash/internal/model"
)

// BaseLevelXP is the XP at which level 2 begins; each level doubles it.
const BaseLevelXP = 1000

// Milestones are the level targets shown as "next milestone". The
// sequence saturates: past the last entry the last entry is returned.
var Milestones = []int{10, 20, 30, 40, 50}

// LevelOf maps total XP to a level >= 1.
func LevelOf(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	level := int(math.Floor(math.Log2(float64(totalXP)/BaseLevelXP) + 1))
	if level < 1 {
		return 1
	}
	return level
}

// ThresholdXP returns the XP at which level begins: 2^(level-1) * 1000.
func ThresholdXP(level int) int64 {
	if level < 1 {
		level = 1
	}
	// 1000 << 53 is the largest shift that fits in int64.
	if level-1 > 53 {
		return math.MaxInt64
	}
	return int64(BaseLevelXP) << uint(level-1)
}

// LevelProgress returns how far totalXP sits between the current and
// next level thresholds, clamped to [0, 100].
func LevelProgress(totalXP int64) float64 {
	level := LevelOf(totalXP)
	low := ThresholdXP(level)
	high := ThresholdXP(level + 1)
	if high <= low {
		return 100
	}
	pct := float64(totalXP-low) / float64(high-low) * 100
	return math.Max(0, math.Min(100, pct))
}

// NextMilestone returns the first milestone strictly above level.
func NextMilestone(level int) int {
	for _, m := range Milestones {
		if m > level {
			return m
		}
	}
	return Milestones[len(Milestones)-1]
}

// Summarize builds the headline totals for one learner.
func Summarize(totalXP int64, completedProjects, activityCount int) model.TotalsSummary {
	level := LevelOf(totalXP)
	return model.TotalsSummary{
		TotalXP:               totalXP,
		Level:                 level,
		ThresholdLow:          ThresholdXP(level),
		ThresholdHigh:         ThresholdXP(level + 1),
		ProgressPercent:       LevelProgress(totalXP),
		NextMilestone:         NextMilestone(level),
		CompletedProjectCount: completedProjects,
		ActivityCount:         activityCount,
	}
}
