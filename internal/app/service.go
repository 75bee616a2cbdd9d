package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/value"
)

// SchemaTree represents the loaded schema hierarchy for the explorer.
type SchemaTree struct {
	Database string
	Schemas  []SchemaNode
}

// SchemaNode holds a schema name and its tables.
type SchemaNode struct {
	Name   string
	Tables []string
}

// Column represents a table column with its metadata.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	IsPrimary  bool
	Default    string
	OrdinalPos int32
}

// Service holds the console session: one connection reused by every call
// until Disconnect.
type Service struct {
	base sqlfn.Options

	mu     sync.RWMutex
	conn   sqlfn.Conn
	dbName string
}

// NewService creates a service. base supplies the connector, logger, hooks
// and timeout applied to every call.
func NewService(base sqlfn.Options) *Service {
	return &Service{base: base}
}

// Connect opens the session connection.
func (s *Service) Connect(ctx context.Context, dsn string) error {
	conn, err := sqlfn.Open(ctx, s.base.WithConnectionString(dsn))
	if err != nil {
		return &ErrConnection{DSN: dsn, Cause: err}
	}

	name, err := sqlfn.QuerySingle(ctx, s.base.WithConnection(conn).WithQuery(queryDatabaseName), func(row value.Row) (string, error) {
		return value.GetString("name", row)
	})
	if err != nil {
		_ = conn.Close(context.WithoutCancel(ctx))
		return &ErrConnection{DSN: dsn, Cause: err}
	}

	s.mu.Lock()
	old := s.conn
	s.conn, s.dbName = conn, name
	s.mu.Unlock()
	if old != nil {
		_ = old.Close(ctx)
	}
	return nil
}

// Disconnect closes the session connection.
func (s *Service) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.conn, s.dbName = nil, ""
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(ctx)
}

// Connected reports whether a session is open.
func (s *Service) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

// DatabaseName returns the current database name.
func (s *Service) DatabaseName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dbName
}

// Session returns Options bound to the session connection.
func (s *Service) Session() (sqlfn.Options, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return sqlfn.Options{}, ErrNotConnected
	}
	return s.base.WithConnection(s.conn), nil
}

func (s *Service) introspect(what string) (sqlfn.Options, func(error) error, error) {
	o, err := s.Session()
	wrap := func(err error) error {
		if err == nil {
			return nil
		}
		return &ErrIntrospection{What: what, Cause: err}
	}
	return o, wrap, err
}

func readName(row value.Row) (string, error) {
	return value.GetString("name", row)
}

// LoadSchemaTree fetches schemas and their tables for the connected database.
func (s *Service) LoadSchemaTree(ctx context.Context) (*SchemaTree, error) {
	o, wrap, err := s.introspect("schemas")
	if err != nil {
		return nil, err
	}

	schemas, err := sqlfn.Query(ctx, o.WithQuery(queryListSchemas), readName)
	if err != nil {
		return nil, wrap(err)
	}

	tree := &SchemaTree{Database: s.DatabaseName()}
	for _, schema := range schemas {
		tables, err := sqlfn.Query(ctx, o.WithQuery(queryListTables).WithParams(sqlfn.String("schema", schema)), readName)
		if err != nil {
			return nil, wrap(err)
		}
		tree.Schemas = append(tree.Schemas, SchemaNode{Name: schema, Tables: tables})
	}
	return tree, nil
}

// AllTableNames lists every table of the tree, both bare and schema
// qualified, for editor completion.
func (s *Service) AllTableNames(tree *SchemaTree) []string {
	if tree == nil {
		return nil
	}
	var names []string
	for _, schema := range tree.Schemas {
		for _, t := range schema.Tables {
			names = append(names, t, schema.Name+"."+t)
		}
	}
	return names
}

// LoadColumns fetches column metadata for a specific table.
func (s *Service) LoadColumns(ctx context.Context, schema, table string) ([]Column, error) {
	o, wrap, err := s.introspect("columns")
	if err != nil {
		return nil, err
	}
	q := o.WithQuery(queryGetColumns).WithParams(
		sqlfn.String("schema", schema),
		sqlfn.String("table", table),
	)
	cols, err := sqlfn.Query(ctx, q, func(row value.Row) (Column, error) {
		r := value.NewReader(row)
		col := Column{
			Name:       r.String("name"),
			DataType:   r.String("data_type"),
			IsNullable: r.Bool("nullable"),
			Default:    r.String("default_value"),
			OrdinalPos: r.Int("position"),
			IsPrimary:  r.Bool("primary_key"),
		}
		if !r.OK() {
			return Column{}, fmt.Errorf("incomplete column row: %s", strings.Join(r.Missing(), ", "))
		}
		return col, nil
	})
	return cols, wrap(err)
}

// GetTableRowCount returns the planner's row estimate for a table, or zero
// when the table has no statistics.
func (s *Service) GetTableRowCount(ctx context.Context, schema, table string) (int64, error) {
	o, wrap, err := s.introspect("row count")
	if err != nil {
		return 0, err
	}
	q := o.WithQuery(queryTableRowCount).WithParams(
		sqlfn.String("schema", schema),
		sqlfn.String("table", table),
	)
	n, err := sqlfn.QuerySingle(ctx, q, func(row value.Row) (int64, error) {
		return value.GetBigInt("estimate", row)
	})
	if errors.Is(err, sqlfn.ErrEmptyResult) {
		return 0, nil
	}
	return n, wrap(err)
}

// ExecuteQuery runs a statement typed in the console and returns the
// materialized result.
func (s *Service) ExecuteQuery(ctx context.Context, query string) (*sqlfn.ResultSet, error) {
	o, err := s.Session()
	if err != nil {
		return nil, err
	}
	result, err := sqlfn.QueryResult(ctx, o.WithQuery(query))
	if err != nil {
		return nil, &ErrQuery{Query: query, Cause: err}
	}
	return result, nil
}
