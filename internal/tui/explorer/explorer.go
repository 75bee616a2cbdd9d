package explorer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/sqlfn/internal/app"
	"github.com/joacominatel/sqlfn/internal/tui/theme"
)

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeSchema
	NodeTable
	NodeColumn
)

// TreeNode represents a single node in the schema tree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TreeNode
	Expanded bool
	Loaded   bool // children fetched

	Schema string // parent schema (tables and columns)
	Table  string // parent table (columns)

	Column   app.Column
	RowCount int64
	Counted  bool
}

type flatItem struct {
	node  *TreeNode
	depth int
}

// RequestColumnsMsg asks the app to load the columns of an expanded table.
type RequestColumnsMsg struct {
	Schema string
	Table  string
}

// RequestRowCountMsg asks the app to estimate a table's row count.
type RequestRowCountMsg struct {
	Schema string
	Table  string
}

// QuickQueryMsg asks the app to run a generated query right away.
type QuickQueryMsg struct {
	Query string
}

// Model is the explorer (schema tree) component.
type Model struct {
	tree    *TreeNode
	items   []flatItem
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// New creates a new explorer model.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the explorer has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetTree populates the explorer from a schema tree.
func (m *Model) SetTree(schema *app.SchemaTree) {
	root := &TreeNode{
		Kind:     NodeDatabase,
		Name:     schema.Database,
		Expanded: true,
		Loaded:   true,
	}
	for _, s := range schema.Schemas {
		node := &TreeNode{Kind: NodeSchema, Name: s.Name, Loaded: true}
		for _, t := range s.Tables {
			node.Children = append(node.Children, &TreeNode{Kind: NodeTable, Name: t, Schema: s.Name})
		}
		root.Children = append(root.Children, node)
	}

	m.tree = root
	m.loading = false
	m.flatten()
}

// SetColumns adds column nodes to a table node.
func (m *Model) SetColumns(schema, table string, columns []app.Column) {
	m.visitTable(schema, table, func(node *TreeNode) {
		node.Children = make([]*TreeNode, 0, len(columns))
		for _, col := range columns {
			node.Children = append(node.Children, &TreeNode{
				Kind:   NodeColumn,
				Name:   col.Name,
				Schema: schema,
				Table:  table,
				Column: col,
			})
		}
		node.Loaded = true
	})
	m.flatten()
}

// SetRowCount records a table's row estimate.
func (m *Model) SetRowCount(schema, table string, n int64) {
	m.visitTable(schema, table, func(node *TreeNode) {
		node.RowCount = n
		node.Counted = true
	})
}

func (m *Model) visitTable(schema, table string, fn func(*TreeNode)) {
	if m.tree == nil {
		return
	}
	for _, s := range m.tree.Children {
		if s.Name != schema {
			continue
		}
		for _, t := range s.Children {
			if t.Name == table {
				fn(t)
				return
			}
		}
	}
}

// SelectedTable returns the schema and table under the cursor.
func (m Model) SelectedTable() (schema, table string, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", "", false
	}
	node := m.items[m.cursor].node
	switch node.Kind {
	case NodeTable:
		return node.Schema, node.Name, true
	case NodeColumn:
		return node.Schema, node.Table, true
	}
	return "", "", false
}

func (m *Model) flatten() {
	m.items = nil
	if m.tree != nil {
		m.flattenNode(m.tree, 0)
	}
	m.cursor = max(min(m.cursor, len(m.items)-1), 0)
}

func (m *Model) flattenNode(node *TreeNode, depth int) {
	m.items = append(m.items, flatItem{node: node, depth: depth})
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child, depth+1)
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
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
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		return m, m.expand()
	case "left", "h":
		m.collapse()
	case "s":
		if schema, table, ok := m.SelectedTable(); ok {
			query := fmt.Sprintf("SELECT * FROM %s LIMIT 100", qualified(schema, table))
			return m, func() tea.Msg { return QuickQueryMsg{Query: query} }
		}
	case "d":
		if schema, table, ok := m.SelectedTable(); ok {
			return m, func() tea.Msg { return RequestRowCountMsg{Schema: schema, Table: table} }
		}
	}
	return m, nil
}

// expand toggles the node under the cursor and requests columns for
// tables opened for the first time.
func (m *Model) expand() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node
	if node.Kind == NodeColumn {
		return nil
	}

	node.Expanded = !node.Expanded
	m.flatten()

	if node.Expanded && node.Kind == NodeTable && !node.Loaded {
		schema, table := node.Schema, node.Name
		return func() tea.Msg {
			return RequestColumnsMsg{Schema: schema, Table: table}
		}
	}
	return nil
}

// collapse closes the node under the cursor, or jumps to its parent.
func (m *Model) collapse() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	item := m.items[m.cursor]
	if item.node.Expanded {
		item.node.Expanded = false
		m.flatten()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.items[i].depth < item.depth {
			m.cursor = i
			return
		}
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualified(schema, table string) string {
	return quoteIdent(schema) + "." + quoteIdent(table)
}

// View renders the explorer.
func (m Model) View() string {
	title := theme.StyleTitle.Render("Schema Explorer")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}
	if m.tree == nil {
		return title + "\n" + theme.StyleMuted.Render("  No connection")
	}

	visible := max(m.height-2, 1)
	offset := 0
	if m.cursor >= visible {
		offset = m.cursor - visible + 1
	}

	lines := []string{title}
	for i := offset; i < len(m.items) && i < offset+visible; i++ {
		lines = append(lines, m.renderNode(m.items[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderNode(item flatItem, selected bool) string {
	node := item.node
	indent := strings.Repeat("  ", item.depth)

	icon := "▶ "
	if node.Expanded {
		icon = "▼ "
	}
	if node.Kind == NodeColumn {
		icon = "  "
		if node.Column.IsPrimary {
			icon = "⚷ "
		}
	}

	name := node.Name
	if m.width > 0 {
		name = truncate(name, m.width-lipgloss.Width(indent+icon)-2)
	}

	var detail string
	switch node.Kind {
	case NodeColumn:
		detail = node.Column.DataType
		if !node.Column.IsNullable {
			detail += " not null"
		}
	case NodeTable:
		if node.Counted {
			detail = fmt.Sprintf("~%d rows", node.RowCount)
		}
	}

	line := indent + icon + name
	if selected {
		line = theme.StyleSelected.Render(line)
	}
	if detail != "" && m.width > 0 && lipgloss.Width(indent+icon+name)+len(detail)+1 < m.width-2 {
		line += " " + theme.StyleMuted.Render(detail)
	}
	return line
}

func truncate(s string, width int) string {
	if width <= 2 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+2 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ".."
}
