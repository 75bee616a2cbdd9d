package editor

import (
	"slices"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/sqlfn/internal/tui/theme"
)

// ExecuteQueryMsg is sent when the user triggers query execution.
type ExecuteQueryMsg struct {
	Query string
}

const (
	maxHistory     = 100
	maxCompletions = 8
)

var sqlKeywords = []string{
	"all", "alter", "and", "as", "asc", "avg", "begin", "between", "by",
	"call", "cascade", "case", "commit", "copy", "count", "create", "cross",
	"default", "delete", "desc", "distinct", "drop", "else", "end", "exists",
	"false", "foreign", "from", "group", "having", "ilike", "in", "index",
	"inner", "insert", "into", "is", "join", "key", "left", "like", "limit",
	"max", "min", "not", "null", "offset", "on", "or", "order", "outer",
	"primary", "references", "restrict", "returning", "right", "rollback",
	"select", "set", "sum", "table", "then", "true", "truncate", "union",
	"update", "values", "when", "where", "with",
}

var keywordSet = func() map[string]bool {
	set := make(map[string]bool, len(sqlKeywords))
	for _, k := range sqlKeywords {
		set[k] = true
	}
	return set
}()

// Model is the SQL query editor component.
type Model struct {
	textarea textarea.Model
	width    int
	height   int
	focused  bool

	tableNames  []string
	completing  bool
	completions []string
	compIndex   int

	history    []string
	historyPos int
	draft      string
}

// New creates a new editor model.
func New() Model {
	ta := textarea.New()
	ta.Placeholder = "Enter SQL query..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "│ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = theme.StyleMuted
	ta.BlurredStyle.Placeholder = theme.StyleMuted
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.Accent)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(theme.Frame)

	return Model{textarea: ta}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(w - 2)
	m.textarea.SetHeight(h - 2)
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if f {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
		m.cancelCompletion()
	}
}

// Focused returns whether the editor has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Value returns the current editor content.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetQuery replaces the editor content.
func (m *Model) SetQuery(query string) {
	m.textarea.SetValue(query)
	m.cancelCompletion()
}

// SetTableNames sets the table names offered by completion.
func (m *Model) SetTableNames(names []string) {
	m.tableNames = names
}

// CompletionActive reports whether the completion list is open, so Tab
// belongs to the editor rather than pane switching.
func (m Model) CompletionActive() bool {
	return m.completing
}

// History returns executed queries, oldest first.
func (m Model) History() []string {
	return m.history
}

// Clear empties the editor.
func (m *Model) Clear() {
	m.textarea.Reset()
	m.cancelCompletion()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		if m.completing {
			switch key.String() {
			case "up", "ctrl+p":
				m.compIndex = (m.compIndex + len(m.completions) - 1) % len(m.completions)
				return m, nil
			case "down", "ctrl+n":
				m.compIndex = (m.compIndex + 1) % len(m.completions)
				return m, nil
			case "tab", "enter":
				m.applyCompletion()
				return m, nil
			case "esc":
				m.cancelCompletion()
				return m, nil
			}
			m.cancelCompletion()
		}

		switch key.String() {
		case "ctrl+e", "f5":
			query := strings.TrimSpace(m.textarea.Value())
			if query == "" {
				return m, nil
			}
			m.remember(query)
			return m, func() tea.Msg {
				return ExecuteQueryMsg{Query: query}
			}
		case "ctrl+k":
			m.Clear()
			return m, nil
		case "ctrl+l":
			m.textarea.SetValue(FormatKeywords(m.textarea.Value()))
			return m, nil
		case "ctrl+p":
			m.recall(-1)
			return m, nil
		case "ctrl+n":
			m.recall(1)
			return m, nil
		case "tab", "ctrl+@":
			if m.openCompletion(key.String() == "ctrl+@") {
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) remember(query string) {
	if n := len(m.history); n == 0 || m.history[n-1] != query {
		m.history = append(m.history, query)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}
	m.historyPos = len(m.history)
	m.draft = ""
}

// recall steps through history; stepping past the newest entry restores
// the text being typed before recall started.
func (m *Model) recall(step int) {
	if len(m.history) == 0 {
		return
	}
	if m.historyPos == len(m.history) {
		m.draft = m.textarea.Value()
	}
	pos := max(min(m.historyPos+step, len(m.history)), 0)
	if pos == m.historyPos {
		return
	}
	m.historyPos = pos
	if pos == len(m.history) {
		m.textarea.SetValue(m.draft)
		return
	}
	m.textarea.SetValue(m.history[pos])
}

// FormatKeywords uppercases SQL keywords outside quoted text.
func FormatKeywords(text string) string {
	var out, word strings.Builder
	flush := func() {
		w := word.String()
		if keywordSet[strings.ToLower(w)] {
			w = strings.ToUpper(w)
		}
		out.WriteString(w)
		word.Reset()
	}

	var quote rune
	for _, ch := range text {
		switch {
		case quote != 0:
			out.WriteRune(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			flush()
			quote = ch
			out.WriteRune(ch)
		case unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_':
			word.WriteRune(ch)
		default:
			flush()
			out.WriteRune(ch)
		}
	}
	flush()
	return out.String()
}

// candidates lists completions for the word being typed. Tables come first
// after FROM, JOIN, INTO, UPDATE or TABLE; keywords otherwise.
func (m Model) candidates(partial string, all bool) []string {
	if partial == "" && !all {
		return nil
	}
	lower := strings.ToLower(partial)
	var out []string
	add := func(names []string, upper bool) {
		for _, n := range names {
			if strings.HasPrefix(strings.ToLower(n), lower) && !strings.EqualFold(n, partial) {
				if upper {
					n = strings.ToUpper(n)
				}
				if !slices.Contains(out, n) {
					out = append(out, n)
				}
			}
		}
	}

	if tableContext(m.textarea.Value(), partial) {
		add(m.tableNames, false)
		add(sqlKeywords, true)
	} else {
		add(sqlKeywords, true)
		add(m.tableNames, false)
	}
	return out
}

func tableContext(text, partial string) bool {
	fields := strings.Fields(strings.TrimSuffix(strings.TrimRight(text, " \t\r\n"), partial))
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[len(fields)-1]) {
	case "FROM", "JOIN", "INTO", "UPDATE", "TABLE":
		return true
	}
	return false
}

// openCompletion opens the list for the word at the end of the text.
// Tab with a single candidate completes it directly.
func (m *Model) openCompletion(explicit bool) bool {
	val := m.textarea.Value()
	partial := extractLastWord(val)
	if !explicit && (partial == "" || strings.TrimRight(val, " \t\r\n") != val) {
		return false
	}
	matches := m.candidates(partial, explicit)
	if len(matches) == 0 {
		return false
	}
	m.completions = matches
	m.compIndex = 0
	if len(matches) == 1 && !explicit {
		m.applyCompletion()
		return true
	}
	m.completing = true
	return true
}

// applyCompletion replaces the partial word with the selected candidate.
func (m *Model) applyCompletion() {
	if len(m.completions) == 0 {
		return
	}
	val := m.textarea.Value()
	base := strings.TrimSuffix(val, extractLastWord(val))
	m.textarea.SetValue(base + m.completions[m.compIndex])
	m.cancelCompletion()
}

func (m *Model) cancelCompletion() {
	m.completing = false
	m.completions = nil
	m.compIndex = 0
}

// extractLastWord returns the identifier-like token ending the text.
func extractLastWord(s string) string {
	i := len(s)
	for i > 0 && isIdentChar(rune(s[i-1])) {
		i--
	}
	return s[i:]
}

func isIdentChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '.'
}

// View renders the editor.
func (m Model) View() string {
	title := theme.StyleTitle.Render("Query Editor")
	if len(m.history) > 0 {
		title += theme.StyleMuted.Render("  history: ctrl+p/ctrl+n")
	}

	view := title + "\n" + m.textarea.View()
	if !m.completing {
		return view
	}

	start := max(0, min(m.compIndex-maxCompletions/2, len(m.completions)-maxCompletions))
	end := min(start+maxCompletions, len(m.completions))
	items := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i == m.compIndex {
			items = append(items, theme.StyleSelected.Render(m.completions[i]))
		} else {
			items = append(items, theme.StyleMuted.Render(m.completions[i]))
		}
	}
	hint := lipgloss.NewStyle().Padding(0, 1).Render(
		theme.StyleMuted.Render("↑/↓ Tab: ") + strings.Join(items, " │ "),
	)
	return view + "\n" + hint
}
