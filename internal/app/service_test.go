package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/internal/pgtest"
)

func positional(query string, names ...string) string {
	for i, n := range names {
		query = strings.ReplaceAll(query, "@"+n, "$"+string(rune('1'+i)))
	}
	return query
}

func names(values ...string) pgtest.Result {
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v}
	}
	return pgtest.Result{
		Fields: []pgconn.FieldDescription{pgtest.Field("name", pgtype.TextOID)},
		Rows:   rows,
	}
}

func connected(t *testing.T, conn *pgtest.Conn) *Service {
	t.Helper()
	conn.On(queryDatabaseName, names("shop"))
	s := NewService(sqlfn.Options{}.WithConnector(func(context.Context, string) (sqlfn.Conn, error) {
		return conn, nil
	}))
	require.NoError(t, s.Connect(context.Background(), "postgres://localhost/shop"))
	return s
}

func TestConnect(t *testing.T) {
	conn := pgtest.NewConn()
	s := connected(t, conn)
	assert.True(t, s.Connected())
	assert.Equal(t, "shop", s.DatabaseName())

	require.NoError(t, s.Disconnect(context.Background()))
	assert.False(t, s.Connected())
	assert.Equal(t, 1, conn.Closed())

	_, err := s.LoadSchemaTree(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectFailure(t *testing.T) {
	refused := errors.New("refused")
	s := NewService(sqlfn.Options{}.WithConnector(func(context.Context, string) (sqlfn.Conn, error) {
		return nil, refused
	}))

	err := s.Connect(context.Background(), "postgres://nowhere/db")
	var cerr *ErrConnection
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, refused)
	assert.False(t, s.Connected())
}

func TestLoadSchemaTree(t *testing.T) {
	conn := pgtest.NewConn()
	s := connected(t, conn)
	conn.On(queryListSchemas, names("public", "sales"))
	conn.Default = names("orders", "customers")

	tree, err := s.LoadSchemaTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shop", tree.Database)
	require.Len(t, tree.Schemas, 2)
	assert.Equal(t, "sales", tree.Schemas[1].Name)
	assert.Equal(t, []string{"orders", "customers"}, tree.Schemas[1].Tables)

	calls := conn.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, positional(queryListTables, "schema"), last.SQL)
	assert.Equal(t, []any{"sales"}, last.Args)
	assert.Zero(t, conn.Closed(), "the session connection stays open")

	assert.Equal(t, []string{
		"orders", "public.orders", "customers", "public.customers",
		"orders", "sales.orders", "customers", "sales.customers",
	}, s.AllTableNames(tree))
}

func TestLoadColumns(t *testing.T) {
	conn := pgtest.NewConn()
	s := connected(t, conn)
	conn.On(positional(queryGetColumns, "schema", "table"), pgtest.Result{
		Fields: []pgconn.FieldDescription{
			pgtest.Field("name", pgtype.TextOID),
			pgtest.Field("data_type", pgtype.TextOID),
			pgtest.Field("nullable", pgtype.BoolOID),
			pgtest.Field("default_value", pgtype.TextOID),
			pgtest.Field("position", pgtype.Int4OID),
			pgtest.Field("primary_key", pgtype.BoolOID),
		},
		Rows: [][]any{
			{"id", "integer", false, "nextval('orders_id_seq')", int32(1), true},
			{"note", "text", true, "", int32(2), false},
		},
	})

	cols, err := s.LoadColumns(context.Background(), "public", "orders")
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Name: "id", DataType: "integer", Default: "nextval('orders_id_seq')", OrdinalPos: 1, IsPrimary: true},
		{Name: "note", DataType: "text", IsNullable: true, OrdinalPos: 2},
	}, cols)
}

func TestLoadColumnsIncompleteRow(t *testing.T) {
	conn := pgtest.NewConn()
	s := connected(t, conn)
	conn.Default = names("id")

	_, err := s.LoadColumns(context.Background(), "public", "orders")
	var ierr *ErrIntrospection
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "data_type")
}

func TestGetTableRowCount(t *testing.T) {
	conn := pgtest.NewConn()
	s := connected(t, conn)
	conn.Default = pgtest.Result{
		Fields: []pgconn.FieldDescription{pgtest.Field("estimate", pgtype.Int8OID)},
		Rows:   [][]any{{int64(1200)}},
	}

	n, err := s.GetTableRowCount(context.Background(), "public", "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), n)

	conn.Default = pgtest.Result{Fields: []pgconn.FieldDescription{pgtest.Field("estimate", pgtype.Int8OID)}}
	n, err = s.GetTableRowCount(context.Background(), "public", "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecuteQuery(t *testing.T) {
	conn := pgtest.NewConn()
	s := connected(t, conn)
	conn.On("SELECT 1 AS one", pgtest.Result{
		Fields: []pgconn.FieldDescription{pgtest.Field("one", pgtype.Int4OID)},
		Rows:   [][]any{{int32(1)}},
	})

	res, err := s.ExecuteQuery(context.Background(), "SELECT 1 AS one")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "one", res.Columns[0].Name)

	conn.On("SELEC 1", pgtest.Result{Err: &pgconn.PgError{Code: "42601", Message: "syntax error"}})
	_, err = s.ExecuteQuery(context.Background(), "SELEC 1")
	var qerr *ErrQuery
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "SELEC 1", qerr.Query)
}
