package bulk

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNoTableName is returned when no table name can be found in the DDL.
	ErrNoTableName = errors.New("bulk: no table name in definition")

	// ErrNoColumns is returned when no column with a known type is found.
	ErrNoColumns = errors.New("bulk: no typed columns in definition")
)

// TableMeta is the layout scraped from a table definition.
type TableMeta struct {
	// Name is the table name as written, without quotes. Unquoted parts are
	// folded to lower case the way the server folds them.
	Name string

	// Table holds the name's parts, schema first. A quoted part may contain
	// dots, so Name is only for display.
	Table pgx.Identifier

	// Columns maps each column name to its zero-based ordinal.
	Columns map[string]int
}

// Ordered returns the column names sorted by ordinal.
func (m *TableMeta) Ordered() []string {
	names := make([]string, 0, len(m.Columns))
	for name := range m.Columns {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int { return m.Columns[a] - m.Columns[b] })
	return names
}

// Identifier returns the parts of the table name. Without parsed parts
// Name is taken as one unqualified name.
func (m *TableMeta) Identifier() pgx.Identifier {
	if len(m.Table) > 0 {
		return m.Table
	}
	return pgx.Identifier{m.Name}
}

const ident = `(?:"[^"]+"|[A-Za-z_][A-Za-z0-9_$]*)`

var (
	tableName = regexp.MustCompile(`(?is)^\s*(?:CREATE\s+(?:(?:GLOBAL|LOCAL)\s+)?(?:(?:TEMP|TEMPORARY|UNLOGGED)\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?)?(` + ident + `)(?:\s*\.\s*(` + ident + `))?`)

	// columnDef matches "<name> <type>" where type is one of the scalar
	// types sqlfn can load. Constraint clauses never match.
	columnDef = regexp.MustCompile(`(?is)^\s*(` + ident + `)\s+(?:` +
		`smallint|int2|integer|int4|int8|bigint|int|smallserial|serial|bigserial|` +
		`"char"|character\s+varying|varchar|character|char|bpchar|text|name|citext|` +
		`timestamp(?:tz)?|date|` +
		`boolean|bool|real|float4|float8|double\s+precision|float|` +
		`numeric|decimal|money|bytea|uuid` +
		`)(?:[^A-Za-z0-9_]|$)`)
)

// ParseTableDefinition scrapes a table name and column layout from DDL
// text such as "CREATE TEMP TABLE items (id int, name text)". The text may
// also start directly with the table name.
//
// This is pattern matching, not a SQL parser: columns whose type is not a
// plain scalar keyword are skipped, and the ordinals count only the columns
// that were recognised. Pass explicit columns to the Loader when the DDL is
// more than a simple column list.
func ParseTableDefinition(ddl string) (*TableMeta, error) {
	table, err := parseTableName(ddl)
	if err != nil {
		return nil, err
	}
	meta := newTableMeta(table, 0)

	open := strings.IndexByte(ddl, '(')
	end := strings.LastIndexByte(ddl, ')')
	if open < 0 || end <= open {
		return nil, ErrNoColumns
	}
	for _, def := range splitTopLevel(ddl[open+1 : end]) {
		m := columnDef.FindStringSubmatch(def)
		if m == nil {
			continue
		}
		col := unquote(m[1])
		if _, dup := meta.Columns[col]; dup {
			continue
		}
		meta.Columns[col] = len(meta.Columns)
	}
	if len(meta.Columns) == 0 {
		return nil, ErrNoColumns
	}
	return meta, nil
}

func parseTableName(ddl string) (pgx.Identifier, error) {
	m := tableName.FindStringSubmatch(ddl)
	if m == nil {
		return nil, ErrNoTableName
	}
	table := pgx.Identifier{unquote(m[1])}
	if m[2] != "" {
		table = append(table, unquote(m[2]))
	}
	return table, nil
}

func newTableMeta(table pgx.Identifier, columns int) *TableMeta {
	return &TableMeta{
		Name:    strings.Join(table, "."),
		Table:   table,
		Columns: make(map[string]int, columns),
	}
}

// unquote strips double quotes from a quoted identifier and folds an
// unquoted one to lower case.
func unquote(id string) string {
	if len(id) >= 2 && id[0] == '"' && id[len(id)-1] == '"' {
		return id[1 : len(id)-1]
	}
	return strings.ToLower(id)
}

// splitTopLevel splits a column list on commas outside parentheses and
// quotes, so "numeric(10, 2)" stays in one piece.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
