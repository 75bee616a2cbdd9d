package statusbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/sqlfn/internal/tui/theme"
)

const hints = "Ctrl+E: Execute │ Tab: Switch pane │ ?: Help │ q: Quit"

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	connName   string
	activePane string
	message    string
	isError    bool
	last       string
}

// New creates a new status bar model.
func New() Model {
	return Model{activePane: "explorer"}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection indicator.
func (m *Model) SetConnected(connected bool, name string) {
	m.connected = connected
	m.connName = name
	if !connected {
		m.last = ""
	}
}

// SetActivePane updates the displayed active pane name.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage replaces the hints with msg until it is cleared.
func (m *Model) SetMessage(msg string) {
	m.message = msg
	m.isError = false
}

// SetError shows msg as a failure.
func (m *Model) SetError(msg string) {
	m.message = msg
	m.isError = true
}

// SetLastQuery records the outcome of the last statement.
func (m *Model) SetLastQuery(rows int, affected int64, took time.Duration) {
	if rows == 0 && affected > 0 {
		m.last = fmt.Sprintf("%d affected in %s", affected, took.Round(time.Millisecond))
		return
	}
	m.last = fmt.Sprintf("%d rows in %s", rows, took.Round(time.Millisecond))
}

// View renders the status bar.
func (m Model) View() string {
	dot := lipgloss.NewStyle().Foreground(theme.Bad).Render("●") + " disconnected"
	if m.connected {
		dot = lipgloss.NewStyle().Foreground(theme.Good).Render("●") + " " + m.connName
	}

	left := dot + theme.StyleMuted.Render(" ["+m.activePane+"]")
	if m.last != "" {
		left += theme.StyleMuted.Render(" " + m.last)
	}

	right := hints
	switch {
	case m.message != "" && m.isError:
		right = theme.StyleError.Render(m.message)
	case m.message != "":
		right = m.message
	}

	padding := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return theme.StyleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}
