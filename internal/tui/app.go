// Package tui provides the interactive Bubble Tea dashboard for xpdash.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/log"
	"github.com/theirongolddev/xpdash/internal/model"
	"github.com/theirongolddev/xpdash/internal/pipeline"
	"github.com/theirongolddev/xpdash/internal/tui/components"
	"github.com/theirongolddev/xpdash/internal/tui/theme"
)

// Loader fetches one learner's records. force skips any fresh cache.
// progress may be nil.
type Loader func(ctx context.Context, force bool, progress pipeline.ProgressFunc) (*pipeline.CachedLoadResult, error)

// Options configures NewApp.
type Options struct {
	Load      Loader
	Aggregate pipeline.Options
	// TopProjects is how many projects the Skills tab lists per category.
	TopProjects int
	// RefreshInterval drives auto-refresh; values below a minute are raised.
	RefreshInterval time.Duration
	AutoRefresh     bool
	NeedSetup       bool
	Logger          *log.Logger
}

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Result   *pipeline.CachedLoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports fetch progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Result   *pipeline.CachedLoadResult
	Err      error
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	opts Options
	now  func() time.Time
	log  *log.Logger

	// Data
	result   *pipeline.CachedLoadResult
	dash     model.Dashboard
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool
	refreshErr      error

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	timeline timelineState
	skills   skillsState
	projects projectsState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minRefreshInterval = time.Minute
	loadTimeout        = 2 * time.Minute

	tabOverview = 0
	tabTimeline = 1
	tabSkills   = 2
	tabProjects = 3
	tabSettings = 4

	scrollOverhead   = 10
	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	interval := max(opts.RefreshInterval, minRefreshInterval)
	if opts.TopProjects <= 0 {
		opts.TopProjects = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return App{
		opts:            opts,
		now:             time.Now,
		log:             logger.WithComponent(log.ComponentTUI),
		autoRefresh:     opts.AutoRefresh,
		refreshInterval: interval,
		needSetup:       opts.NeedSetup,
		timeline:        timelineState{months: 12},
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.Load, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// recompute aggregates the loaded records against the current options.
func (a *App) recompute() {
	if a.result == nil {
		return
	}
	opts := a.opts.Aggregate
	opts.Now = a.now()

	dash, err := pipeline.Aggregate(a.result.Input, opts)
	if err != nil {
		a.loadErr = err
		return
	}
	a.dash = dash
	a.loadErr = nil

	if n := len(dash.Skills.Categories); a.skills.cursor >= n {
		a.skills.cursor = max(n-1, 0)
	}
	if n := len(a.filteredProjects()); a.projects.cursor >= n {
		a.projects.cursor = max(n-1, 0)
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = a.now()
		if msg.Err != nil {
			a.loadErr = msg.Err
			a.log.Err(context.Background(), "load", msg.Err)
			return a, nil
		}
		a.result = msg.Result
		a.recompute()

		if a.needSetup {
			a.setupForm = newSetupForm(a.dash.Profile.DisplayName(), &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.opts.Load))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = a.now()
		a.refreshErr = msg.Err
		if msg.Err != nil {
			a.log.Err(context.Background(), "refresh", msg.Err)
			return a, nil
		}
		if msg.Result != nil {
			a.result = msg.Result
			a.loadTime = msg.LoadTime
			a.recompute()
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.loadErr != nil || a.showHelp || a.setupForm != nil {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.loadErr != nil {
		switch key {
		case "q", "esc":
			return a, tea.Quit
		case "r":
			a.loaded = false
			a.loadErr = nil
			a.progress, a.progressMax = 0, 0
			return a, tea.Batch(loadDataCmd(a.opts.Load, a.loadSub), a.spinner.Tick)
		}
		return a, nil
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabProjects && a.projects.searching {
		return a.updateProjectsSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "j", "down":
		a.moveCursor(1)
		return a, nil
	case "k", "up":
		a.moveCursor(-1)
		return a, nil
	}

	switch a.activeTab {
	case tabTimeline:
		if handled := a.updateTimelineKey(key); handled {
			return a, nil
		}
	case tabProjects:
		if m, cmd, handled := a.updateProjectsKey(key); handled {
			return m, cmd
		}
	case tabSettings:
		if key == "enter" {
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts.Load)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if runes := []rune(key); len(runes) == 1 {
		if idx := components.TabIdxByKey(runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// moveCursor moves the active tab's list selection by delta.
func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabSkills:
		n := len(a.dash.Skills.Categories)
		a.skills.cursor = clampInt(a.skills.cursor+delta, 0, max(n-1, 0))
	case tabProjects:
		if a.projects.searching {
			return
		}
		n := len(a.filteredProjects())
		a.projects.cursor = clampInt(a.projects.cursor+delta, 0, max(n-1, 0))
		a.projects.offset = visibleOffset(a.projects.cursor, a.projects.offset, projectRows(a.contentHeight(), false))
	case tabSettings:
		if a.settings.editing {
			return
		}
		a.settings.cursor = clampInt(a.settings.cursor+delta, 0, settingsFieldCount-1)
	}
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.log.Err(context.Background(), "save setup", err)
		}
		a.recompute()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// contentHeight is the height left for tab content under the two header
// rows and the status bar.
func (a App) contentHeight() int {
	return max(a.height-3, minContentHeight)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.loadErr != nil {
		return a.viewError()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  xpdash needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	count := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logo.Render("◈ xpdash"))
	b.WriteString(subtitle.Render(" · learning progress"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())

	if a.progressMax > 0 {
		b.WriteString(subtitle.Render(" Fetching records"))
		b.WriteString("\n\n")
		pct := 100 * float64(a.progress) / float64(a.progressMax)
		b.WriteString(components.LevelBar(pct, clampInt(a.width-30, 20, 40)))
		b.WriteString("\n")
		b.WriteString(count.Render(fmt.Sprintf("%d", a.progress)))
		b.WriteString(subtitle.Render(" / "))
		b.WriteString(count.Render(fmt.Sprintf("%d", a.progressMax)))
	} else {
		b.WriteString(subtitle.Render(" Connecting..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewError() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3).
		Width(clampInt(a.width-10, 40, 90))
	title := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	body := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	content := title.Render("Could not load records") + "\n\n" +
		body.Render(a.loadErr.Error()) + "\n\n" +
		dim.Render("[r] retry  [q] quit")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(content),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	type binding struct{ key, desc string }
	groups := []struct {
		name     string
		bindings []binding
	}{
		{"Navigation", []binding{
			{"o t s p x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move selection"},
			{"g G", "First / Last project"},
		}},
		{"Actions", []binding{
			{"/", "Search projects"},
			{"m", "Toggle all-time / recent timeline"},
			{"+ -", "More / fewer months"},
			{"Enter", "Edit setting"},
			{"Esc", "Back / Cancel"},
			{"r", "Refresh now"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(title.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, g := range groups {
		b.WriteString("\n")
		b.WriteString(section.Render(g.name))
		b.WriteString("\n")
		for _, bind := range g.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				desc.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	filter := pill.Render(" ") + accent.Render(a.dash.Profile.DisplayName()) +
		pill.Render(" │ ") + accent.Render(fmt.Sprintf("recent %dd", a.recentDays())) +
		pill.Render(" ")
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filter)

	statusBar := components.RenderStatusBar(w, a.statusInfo())

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabTimeline:
		content = a.renderTimelineTab(cw)
	case tabSkills:
		content = a.renderSkillsTab(cw)
	case tabProjects:
		content = a.renderProjectsTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() components.StatusInfo {
	info := components.StatusInfo{
		Login:       a.dash.Profile.Login,
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
	}
	if a.result != nil {
		info.Stale = a.result.Stale || a.refreshErr != nil
		info.Warnings = len(a.result.Warnings)
	}
	if !a.dash.FetchedAt.IsZero() {
		info.DataAge = cli.FormatRelative(a.dash.FetchedAt, a.now())
	}
	return info
}

func (a App) recentDays() int {
	if a.opts.Aggregate.RecentDays > 0 {
		return a.opts.Aggregate.RecentDays
	}
	return pipeline.DefaultRecentDays
}

// ─── Commands ───────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd runs the loader in a background goroutine. It streams
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(load Loader, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			// Non-blocking send; a dropped update is superseded by the next.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			res, err := load(ctx, false, progressFn)
			sub <- DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd refetches in the background without progress UI.
func refreshDataCmd(load Loader) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		res, err := load(ctx, true, nil)
		return RefreshDataMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
