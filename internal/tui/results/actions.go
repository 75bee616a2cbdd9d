package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/value"
)

// clipboardWrite is swapped in tests.
var clipboardWrite = clipboard.WriteAll

func (m Model) selectedRow() (value.Row, bool) {
	if m.result == nil || m.cursorY < 0 || m.cursorY >= len(m.result.Rows) {
		return nil, false
	}
	return m.result.Rows[m.cursorY], true
}

func (m Model) selectedCell() (value.Field, bool) {
	row, ok := m.selectedRow()
	if !ok {
		return value.Field{}, false
	}
	return row.At(m.cursorX)
}

func (m *Model) copy(text, done string) {
	if err := clipboardWrite(text); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = done
}

// --- Copy ---

func (m *Model) doCopyCell() {
	f, ok := m.selectedCell()
	if !ok {
		m.statusMessage = "Nothing to copy"
		return
	}
	text := f.Value.String()
	m.copy(text, "Copied: "+truncateStatus(text, 40))
}

func (m *Model) doCopyRowJSON() {
	row, ok := m.selectedRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	data, err := rowJSON(row)
	if err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.copy(string(data), "Copied row as JSON")
}

func (m *Model) doCopyRowCSV() {
	row, ok := m.selectedRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(row.Names())
	_ = w.Write(csvRecord(row))
	w.Flush()
	m.copy(b.String(), "Copied row as CSV")
}

func (m *Model) doCopyRowText() {
	row, ok := m.selectedRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	cells := make([]string, len(row))
	for i, f := range row {
		cells[i] = f.Value.String()
	}
	m.copy(strings.Join(cells, "\t"), "Copied row as text")
}

// --- Filter ---

func (m *Model) doFilterByValue() tea.Cmd {
	f, ok := m.selectedCell()
	table := extractTableName(m.lastQuery)
	if !ok || table == "" {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, condition(f))
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// --- Delete ---

func (m *Model) doGenerateDelete() tea.Cmd {
	row, ok := m.selectedRow()
	if !ok {
		return nil
	}
	conds := make([]string, len(row))
	for i, f := range row {
		conds[i] = condition(f)
	}

	// sent to the editor for review, never executed directly
	query := fmt.Sprintf("-- review before executing!\nDELETE FROM %s WHERE %s",
		extractTableName(m.lastQuery), strings.Join(conds, " AND "))
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// --- Export ---

func (m Model) exportPath(ext string) string {
	name := fmt.Sprintf("sqlfn_export_%s.%s", time.Now().Format("20060102_150405"), ext)
	return filepath.Join(m.exportDir, name)
}

func (m Model) exportJSONCmd() tea.Cmd {
	result := m.result
	if result == nil {
		return nil
	}
	path := m.exportPath("json")
	return func() tea.Msg {
		if err := writeJSON(path, result); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(result.Rows), path)}
	}
}

func (m Model) exportCSVCmd() tea.Cmd {
	result := m.result
	if result == nil {
		return nil
	}
	path := m.exportPath("csv")
	return func() tea.Msg {
		if err := writeCSV(path, result); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(result.Rows), path)}
	}
}

func writeJSON(path string, result *sqlfn.ResultSet) error {
	var b bytes.Buffer
	b.WriteString("[")
	for i, row := range result.Rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  ")
		data, err := rowJSON(row)
		if err != nil {
			return err
		}
		b.Write(data)
	}
	b.WriteString("\n]\n")
	return os.WriteFile(path, b.Bytes(), 0o644)
}

func writeCSV(path string, result *sqlfn.ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col.Name
	}
	_ = w.Write(header)
	for _, row := range result.Rows {
		_ = w.Write(csvRecord(row))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// --- Helpers ---

func extractTableName(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(tokens) {
				if name := strings.TrimRight(tokens[i+1], ";,()"); name != "" {
					return name
				}
			}
		}
	}
	return "<table>"
}

// sqlLiteral renders v as a SQL literal. Numbers and booleans stay bare.
func sqlLiteral(v value.Value) string {
	switch k := v.Kind(); {
	case k == value.KindNull:
		return "NULL"
	case k.Numeric(), k == value.KindBool:
		return v.String()
	case k == value.KindBinary:
		return "'" + v.String() + "'::bytea"
	}
	return "'" + strings.ReplaceAll(v.String(), "'", "''") + "'"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func condition(f value.Field) string {
	if f.Value.IsNull() {
		return quoteIdent(f.Name) + " IS NULL"
	}
	return quoteIdent(f.Name) + " = " + sqlLiteral(f.Value)
}

// rowJSON encodes a row as an object whose keys keep column order.
func rowJSON(row value.Row) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("{")
	for i, f := range row {
		if i > 0 {
			b.WriteString(", ")
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteString(": ")
		b.Write(val)
	}
	b.WriteString("}")
	return b.Bytes(), nil
}

// csvRecord renders a row for CSV. NULL becomes an empty field.
func csvRecord(row value.Row) []string {
	rec := make([]string, len(row))
	for i, f := range row {
		if !f.Value.IsNull() {
			rec[i] = f.Value.String()
		}
	}
	return rec
}

func truncateStatus(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
