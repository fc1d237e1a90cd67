package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

var (
	sparkBlocks = []rune("▁▂▃▄▅▆▇█")
	// eighths[i] fills i/8 of a cell from the bottom.
	eighths = []rune(" ▁▂▃▄▅▆▇█")
)

// Sparkline renders a unicode sparkline from values. Negative values
// render as the lowest block.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	top := len(sparkBlocks) - 1
	out := make([]rune, len(values))
	for i, v := range values {
		out[i] = sparkBlocks[clampInt(int(v/peak*float64(top)), 0, top)]
	}
	style := lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface)
	return style.Render(string(out))
}

// BarChart renders vertical bars with a labelled Y axis. labels, when
// len(labels) == len(values), are printed under the first and last bar
// and at evenly spaced bars in between.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	ceiling := niceCeiling(peak)

	topLabel := FormatAxis(ceiling)
	midLabel := FormatAxis(ceiling / 2)
	yW := max(len(topLabel), len(midLabel), 1) + 1

	// Downsample by keeping every k-th value so each bar gets >= 1 column.
	plotW := width - yW - 1
	values, labels = downsample(values, labels, max(plotW, 1))
	n := len(values)
	barW := clampInt((plotW-(n-1))/n, 1, 6)
	gap := 1
	if n == 1 {
		gap = 0
	}

	var b strings.Builder
	mid := (height + 1) / 2
	for row := height; row >= 1; row-- {
		label := ""
		switch row {
		case height:
			label = topLabel
		case mid:
			label = midLabel
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yW, label)))

		lo := ceiling * float64(row-1) / float64(height)
		hi := ceiling * float64(row) / float64(height)
		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			var cell rune
			switch {
			case v >= hi:
				cell = '█'
			case v > lo:
				cell = eighths[clampInt(int((v-lo)/(hi-lo)*8), 1, 8)]
			default:
				cell = ' '
			}
			b.WriteString(bar.Render(strings.Repeat(string(cell), barW)))
		}
		b.WriteString("\n")
	}

	axisLen := n*barW + (n-1)*gap
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(axis.Render(strings.Repeat(" ", yW+1) + xLabels(labels, barW+gap, axisLen)))
	}
	return b.String()
}

// xLabels lays labels under bars of the given pitch without overlap.
func xLabels(labels []string, pitch, axisLen int) string {
	buf := []rune(strings.Repeat(" ", axisLen))
	next := 0
	place := func(i int, force bool) {
		lbl := []rune(labels[i])
		pos := i * pitch
		if pos+len(lbl) > axisLen {
			pos = axisLen - len(lbl)
		}
		if pos < 0 || (!force && pos < next) {
			return
		}
		copy(buf[pos:], lbl)
		next = pos + len(lbl) + 1
	}
	last := len(labels) - 1
	for i := 0; i < last; i++ {
		place(i, false)
	}
	if last >= 0 && last*pitch >= next {
		place(last, true)
	}
	return strings.TrimRight(string(buf), " ")
}

func downsample(values []float64, labels []string, cols int) ([]float64, []string) {
	n := len(values)
	maxBars := (cols + 1) / 2
	if n <= maxBars || maxBars < 2 {
		return values, labels
	}
	outV := make([]float64, maxBars)
	var outL []string
	if len(labels) == n {
		outL = make([]string, maxBars)
	}
	for i := range outV {
		src := i * (n - 1) / (maxBars - 1)
		outV[i] = values[src]
		if outL != nil {
			outL[i] = labels[src]
		}
	}
	return outV, outL
}

// niceCeiling rounds v up to 1, 2 or 5 times a power of ten.
func niceCeiling(v float64) float64 {
	if v <= 0 {
		return 1
	}
	base := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if v <= m*base {
			return m * base
		}
	}
	return 10 * base
}

// FormatAxis formats an axis value compactly: 1500 -> "1.5k", 2000000 -> "2M".
func FormatAxis(v float64) string {
	trim := func(f float64, suffix string) string {
		s := fmt.Sprintf("%.1f", f)
		s = strings.TrimSuffix(s, ".0")
		return s + suffix
	}
	switch {
	case v >= 1e6:
		return trim(v/1e6, "M")
	case v >= 1e3:
		return trim(v/1e3, "k")
	case v >= 1 || v == 0:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
