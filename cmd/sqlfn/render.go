package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/value"
)

var formats = []string{"table", "json", "csv", "md"}

func renderResult(w io.Writer, rs *sqlfn.ResultSet, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rs.Rows)
	case "csv":
		newTable(w, rs, "").RenderCSV()
		return nil
	case "md", "markdown":
		newTable(w, rs, "NULL").RenderMarkdown()
		return nil
	case "table", "":
		return renderTable(w, rs)
	}
	return fmt.Errorf("unknown format %q (valid: table, json, csv, md)", format)
}

func renderTable(w io.Writer, rs *sqlfn.ResultSet) error {
	if len(rs.Columns) == 0 {
		_, _ = fmt.Fprintf(w, "%d rows affected\n", rs.RowsAffected)
		return nil
	}
	if len(rs.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w, rs, "NULL")
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
	return nil
}

// newTable loads rs into a go-pretty writer mirrored to w. Numeric columns
// are right aligned and NULL cells print as the null text.
func newTable(w io.Writer, rs *sqlfn.ResultSet, null string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(rs.Columns))
	configs := make([]table.ColumnConfig, 0, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = c.Name
		if c.Kind.Numeric() {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, row := range rs.Rows {
		out := make(table.Row, len(row))
		for i, f := range row {
			out[i] = cell(f.Value, null)
		}
		t.AppendRow(out)
	}
	return t
}

func cell(v value.Value, null string) string {
	if v.IsNull() {
		return null
	}
	return v.String()
}

func renderJSON(w io.Writer, rows value.Table) error {
	if rows == nil {
		rows = value.Table{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
