package results

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/internal/tui/theme"
	"github.com/joacominatel/sqlfn/value"
)

const maxColWidth = 40

// Model is the query results component.
type Model struct {
	result    *sqlfn.ResultSet
	err       error
	width     int
	height    int
	focused   bool
	loading   bool
	colWidths []int

	// Selected cell, and the first visible row and column.
	cursorX int
	cursorY int
	offsetX int
	offsetY int

	lastQuery     string
	statusMessage string
	exportDir     string
}

// New creates a new results model. Exports are written to exportDir, or
// the working directory when it is empty.
func New(exportDir string) Model {
	return Model{exportDir: exportDir}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.clampScroll()
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading marks query as running.
func (m *Model) SetLoading(query string) {
	m.loading = true
	m.lastQuery = query
	m.statusMessage = ""
}

// SetResult sets the query result to display.
func (m *Model) SetResult(r *sqlfn.ResultSet) {
	m.result = r
	m.err = nil
	m.loading = false
	m.cursorX, m.cursorY = 0, 0
	m.offsetX, m.offsetY = 0, 0
	m.statusMessage = ""
	m.calculateColumnWidths()
}

// SetError sets an error to display.
func (m *Model) SetError(err error) {
	m.err = err
	m.result = nil
	m.loading = false
	m.colWidths = nil
}

// Result returns the displayed result, if any.
func (m Model) Result() *sqlfn.ResultSet {
	return m.result
}

// Cursor returns the selected row and column.
func (m Model) Cursor() (row, col int) {
	return m.cursorY, m.cursorX
}

// StatusMessage returns the outcome of the last pane action.
func (m Model) StatusMessage() string {
	return m.statusMessage
}

func (m Model) rowCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Rows)
}

func (m Model) colCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Columns)
}

func kindLabel(col value.Column) string {
	if col.Kind == value.KindNull {
		return col.TypeName
	}
	return col.Kind.String()
}

// cellText renders a value on a single line.
func cellText(v value.Value) string {
	s := v.String()
	if v.Kind() == value.KindString {
		s = strings.NewReplacer("\r\n", "↵", "\n", "↵", "\t", " ").Replace(s)
	}
	return s
}

func (m *Model) calculateColumnWidths() {
	if m.colCount() == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.result.Columns))
	for i, col := range m.result.Columns {
		m.colWidths[i] = max(lipgloss.Width(col.Name), lipgloss.Width(kindLabel(col)), 1)
	}
	for _, row := range m.result.Rows {
		for i, f := range row {
			if i < len(m.colWidths) {
				m.colWidths[i] = max(m.colWidths[i], lipgloss.Width(cellText(f.Value)))
			}
		}
	}
	for i := range m.colWidths {
		m.colWidths[i] = min(m.colWidths[i], maxColWidth)
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		m.cursorY--
	case "down", "j":
		m.cursorY++
	case "left", "h":
		m.cursorX--
	case "right", "l":
		m.cursorX++
	case "home", "g":
		m.cursorY = 0
	case "end", "G":
		m.cursorY = m.rowCount() - 1
	case "pgup":
		m.cursorY -= m.visibleRows()
	case "pgdown":
		m.cursorY += m.visibleRows()
	case "c":
		m.doCopyCell()
	case "y":
		m.doCopyRowJSON()
	case "Y":
		m.doCopyRowCSV()
	case "t":
		m.doCopyRowText()
	case "f":
		return m, m.doFilterByValue()
	case "x":
		return m, m.doGenerateDelete()
	case "e":
		return m, m.exportJSONCmd()
	case "E":
		return m, m.exportCSVCmd()
	default:
		return m, nil
	}

	m.clampScroll()
	return m, nil
}

func (m Model) visibleRows() int {
	// title, two header lines and the separator
	return max(m.height-4, 1)
}

// clampScroll keeps the cursor inside the result and the viewport on the cursor.
func (m *Model) clampScroll() {
	m.cursorY = max(min(m.cursorY, m.rowCount()-1), 0)
	m.cursorX = max(min(m.cursorX, m.colCount()-1), 0)

	rows := m.visibleRows()
	if m.cursorY < m.offsetY {
		m.offsetY = m.cursorY
	}
	if m.cursorY >= m.offsetY+rows {
		m.offsetY = m.cursorY - rows + 1
	}

	if m.cursorX < m.offsetX {
		m.offsetX = m.cursorX
	}
	for m.offsetX < m.cursorX && m.spanWidth(m.offsetX, m.cursorX) > m.width {
		m.offsetX++
	}
}

// spanWidth is the rendered width of columns from..to inclusive.
func (m Model) spanWidth(from, to int) int {
	w := 2
	for i := from; i <= to && i < len(m.colWidths); i++ {
		w += m.colWidths[i] + 3
	}
	return w
}

// visibleColumns returns the column range that fits the pane width.
func (m Model) visibleColumns() (from, to int) {
	from = m.offsetX
	to = from
	for to+1 < len(m.colWidths) && m.spanWidth(from, to+1) <= m.width {
		to++
	}
	return from, to
}

// View renders the results pane.
func (m Model) View() string {
	title := theme.StyleTitle.Render("Results")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Executing query...")
	}
	if m.err != nil {
		return title + "\n" + theme.StyleError.Render("  Error: "+m.err.Error())
	}
	if m.result == nil {
		return title + "\n" + theme.StyleMuted.Render("  Execute a query to see results")
	}

	stats := fmt.Sprintf("%d row(s) | %s", len(m.result.Rows), m.result.Duration.Round(1000))
	if len(m.result.Columns) == 0 {
		stats = fmt.Sprintf("%d row(s) affected | %s", m.result.RowsAffected, m.result.Duration.Round(1000))
	}
	header := title + "  " + theme.StyleMuted.Render(stats)
	if m.statusMessage != "" {
		header += "  " + theme.StyleSuccess.Render(m.statusMessage)
	}

	if len(m.result.Columns) == 0 {
		return header + "\n" + theme.StyleSuccess.Render("  Query executed successfully")
	}

	from, to := m.visibleColumns()
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.renderHeader(from, to))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator(from, to))

	last := min(m.offsetY+m.visibleRows(), len(m.result.Rows))
	for i := m.offsetY; i < last; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(i, from, to))
	}
	return b.String()
}

func (m Model) renderHeader(from, to int) string {
	names := make([]string, 0, to-from+1)
	kinds := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		col := m.result.Columns[i]
		names = append(names, theme.StyleHeader.Render(fit(col.Name, m.colWidths[i], false)))
		kinds = append(kinds, theme.StyleMuted.Render(fit(kindLabel(col), m.colWidths[i], false)))
	}
	return "  " + strings.Join(names, " │ ") + "\n  " + strings.Join(kinds, " │ ")
}

func (m Model) renderRow(y, from, to int) string {
	row := m.result.Rows[y]
	parts := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		v := value.Null()
		if i < len(row) {
			v = row[i].Value
		}
		text := fit(cellText(v), m.colWidths[i], m.result.Columns[i].Kind.Numeric())

		style := theme.Cell(v)
		if m.focused && y == m.cursorY && i == m.cursorX {
			style = style.Reverse(true)
		}
		parts = append(parts, style.Render(text))
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderSeparator(from, to int) string {
	parts := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		parts = append(parts, strings.Repeat("─", m.colWidths[i]))
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.Frame).Render(strings.Join(parts, "─┼─"))
}

// fit truncates or pads s to exactly width cells.
func fit(s string, width int, right bool) string {
	width = max(width, 1)
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}
