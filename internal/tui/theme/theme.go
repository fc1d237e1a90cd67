// Package theme defines color themes for the xpdash TUI dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name          string
	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceHover  lipgloss.Color // Highlighted surface (active tab, selected row)
	SurfaceBright lipgloss.Color // Extra bright surface for emphasis
	Border        lipgloss.Color // Subtle borders
	BorderBright  lipgloss.Color // Prominent borders (cards, focus)
	BorderAccent  lipgloss.Color // Accent-colored borders for focus states
	TextDim       lipgloss.Color // Lowest contrast text (hints, disabled)
	TextMuted     lipgloss.Color // Secondary text (labels, metadata)
	TextPrimary   lipgloss.Color // Primary content text
	Accent        lipgloss.Color // Primary accent (links, active states)
	AccentBright  lipgloss.Color // Brighter accent for emphasis
	AccentDim     lipgloss.Color // Dimmed accent for backgrounds
	Green         lipgloss.Color
	GreenBright   lipgloss.Color
	Orange        lipgloss.Color
	Red           lipgloss.Color
	Blue          lipgloss.Color
	BlueBright    lipgloss.Color
	Yellow        lipgloss.Color
	Magenta       lipgloss.Color
	Cyan          lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// Palettes list colors darkest first. Roles are assigned in build.
type (
	// background, surface, hover, bright surface, border, bright border
	ramp [6]string
	// dim, muted, primary
	ink [3]string
	// accent, bright, dim
	accent [3]string
	// green, bright green, orange, red, blue, bright blue, yellow, magenta, cyan
	hues [9]string
)

func build(name string, r ramp, i ink, a accent, h hues) Theme {
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	return Theme{
		Name:          name,
		Background:    c(r[0]),
		Surface:       c(r[1]),
		SurfaceHover:  c(r[2]),
		SurfaceBright: c(r[3]),
		Border:        c(r[4]),
		BorderBright:  c(r[5]),
		BorderAccent:  c(a[0]),
		TextDim:       c(i[0]),
		TextMuted:     c(i[1]),
		TextPrimary:   c(i[2]),
		Accent:        c(a[0]),
		AccentBright:  c(a[1]),
		AccentDim:     c(a[2]),
		Green:         c(h[0]),
		GreenBright:   c(h[1]),
		Orange:        c(h[2]),
		Red:           c(h[3]),
		Blue:          c(h[4]),
		BlueBright:    c(h[5]),
		Yellow:        c(h[6]),
		Magenta:       c(h[7]),
		Cyan:          c(h[8]),
	}
}

var (
	// FlexokiDark is the default: warm and paper-like.
	FlexokiDark = build("flexoki-dark",
		ramp{"#100F0F", "#1C1B1A", "#282726", "#343331", "#403E3C", "#575653"},
		ink{"#575653", "#878580", "#FFFCF0"},
		accent{"#3AA99F", "#5BC8BE", "#1A3533"},
		hues{"#879A39", "#A3B859", "#DA702C", "#D14D41", "#4385BE", "#6BA3D6", "#D0A215", "#CE5D97", "#24837B"})

	CatppuccinMocha = build("catppuccin-mocha",
		ramp{"#1E1E2E", "#313244", "#45475A", "#585B70", "#585B70", "#7F849C"},
		ink{"#6C7086", "#A6ADC8", "#CDD6F4"},
		accent{"#89B4FA", "#B4D0FB", "#293147"},
		hues{"#A6E3A1", "#C6F6C1", "#FAB387", "#F38BA8", "#89B4FA", "#B4D0FB", "#F9E2AF", "#F5C2E7", "#94E2D5"})

	TokyoNight = build("tokyo-night",
		ramp{"#1A1B26", "#24283B", "#343A52", "#414868", "#565F89", "#7982A9"},
		ink{"#565F89", "#A9B1D6", "#C0CAF5"},
		accent{"#7AA2F7", "#A9C1FF", "#252B3F"},
		hues{"#9ECE6A", "#B9E87A", "#FF9E64", "#F7768E", "#7AA2F7", "#A9C1FF", "#E0AF68", "#BB9AF7", "#7DCFFF"})

	Nord = build("nord",
		ramp{"#2E3440", "#3B4252", "#434C5E", "#4C566A", "#4C566A", "#616E88"},
		ink{"#616E88", "#D8DEE9", "#ECEFF4"},
		accent{"#88C0D0", "#8FBCBB", "#2F3B47"},
		hues{"#A3BE8C", "#B9D3A3", "#D08770", "#BF616A", "#81A1C1", "#5E81AC", "#EBCB8B", "#B48EAD", "#8FBCBB"})

	// Terminal sticks to the 16 ANSI colors.
	Terminal = build("terminal",
		ramp{"0", "0", "8", "8", "8", "7"},
		ink{"8", "7", "15"},
		accent{"6", "14", "0"},
		hues{"2", "10", "3", "1", "4", "12", "3", "5", "6"})
)

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Nord, Terminal}

// Names returns the theme names in display order.
func Names() []string {
	out := make([]string, len(All))
	for i, t := range All {
		out[i] = t.Name
	}
	return out
}

// Next returns the theme after name, wrapping around.
func Next(name string) Theme {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}

// SeriesColor returns a distinct color for the i-th category of a chart.
func (t Theme) SeriesColor(i int) lipgloss.Color {
	palette := []lipgloss.Color{t.Blue, t.Green, t.Orange, t.Magenta, t.Yellow, t.Cyan, t.Red}
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
