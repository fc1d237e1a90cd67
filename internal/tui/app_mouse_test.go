package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := 0; active < 5; active++ {
		a := App{activeTab: active}
		pos := 0

		for i := 0; i < 5; i++ {
			w := tabWidthForTest(i, active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < 4 {
				pos++ // separator
			}
		}
		assert.Equal(t, -1, a.tabAtX(pos+1), "past the last tab")
	}
}

func TestMouseClickSwitchesTab(t *testing.T) {
	a := loadedApp(t)
	// "Overview" is active (10 wide) + separator, so x=12 lands on Timeline.
	a = update(t, a, tea.MouseMsg{X: 12, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.Equal(t, tabTimeline, a.activeTab)

	// Clicks below the tab bar are ignored.
	a = update(t, a, tea.MouseMsg{X: 1, Y: 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.Equal(t, tabTimeline, a.activeTab)
}

func TestMouseWheelMovesSkillsCursor(t *testing.T) {
	a := loadedApp(t)
	a.activeTab = tabSkills
	a = update(t, a, tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 1, a.skills.cursor)
	a = update(t, a, tea.MouseMsg{Button: tea.MouseButtonWheelUp})
	a = update(t, a, tea.MouseMsg{Button: tea.MouseButtonWheelUp})
	assert.Equal(t, 0, a.skills.cursor)
}

func tabWidthForTest(tabIdx, activeIdx int) int {
	nameWidths := []int{
		len("Overview"),
		len("Timeline"),
		len("Skills"),
		len("Projects"),
		len("Settings"),
	}

	w := nameWidths[tabIdx] + 2 // horizontal padding in tab renderer
	if tabIdx != activeIdx && tabIdx == 4 {
		w += 3 // inactive Settings adds "[x]"
	}
	return w
}
