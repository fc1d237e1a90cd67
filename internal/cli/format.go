// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatXP formats an XP amount the way the platform displays it.
// e.g., 999 -> "999 B", 12500 -> "12.5 kB", 1340000 -> "1.34 MB"
func FormatXP(xp int64) string {
	if xp < 0 {
		return "-" + FormatXP(-xp)
	}
	if xp < 1000 {
		return strconv.FormatInt(xp, 10) + " B"
	}
	return humanize.SIWithDigits(float64(xp), 2, "B")
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatSigned formats a delta with an explicit sign.
func FormatSigned(n int64) string {
	if n > 0 {
		return "+" + humanize.Comma(n)
	}
	return humanize.Comma(n)
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatRatio formats a 0-1 ratio with one decimal, the way audit ratios read.
func FormatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// FormatGrade formats a project grade.
func FormatGrade(g float64) string {
	return strconv.FormatFloat(g, 'f', 2, 64)
}

// FormatDate formats a timestamp as a calendar date in local time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

// FormatRelative formats a timestamp relative to now.
// e.g., "3 days ago"
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatMonth turns a "2006-01" key into "Jan 2006".
func FormatMonth(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}
