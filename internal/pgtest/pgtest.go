// Package pgtest provides scripted in-memory doubles for pgx connections,
// rows and transactions.
package pgtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnsupported is returned by the parts of pgx the doubles do not model.
var ErrUnsupported = errors.New("pgtest: unsupported")

// Result scripts the reply to one statement.
type Result struct {
	Fields []pgconn.FieldDescription
	Rows   [][]any
	Tag    pgconn.CommandTag

	// Echo replies with a single row holding the bound arguments.
	Echo bool

	// Err fails the statement itself; RowErr fails it after the rows.
	Err    error
	RowErr error
}

// Call records one statement sent to a Conn.
type Call struct {
	SQL  string
	Args []any
	InTx bool
}

// Copy records one CopyFrom invocation.
type Copy struct {
	Table   pgx.Identifier
	Columns []string
	Rows    [][]any
}

// Field builds a field description.
func Field(name string, oid uint32) pgconn.FieldDescription {
	return pgconn.FieldDescription{Name: name, DataTypeOID: oid}
}

// Conn is a scripted connection. Statements are answered from the results
// registered with On, falling back to Default.
type Conn struct {
	mu      sync.Mutex
	results map[string]Result

	Default Result

	BeginErr   error
	CommitErr  error
	PrepareErr error
	CopyErr    error
	CloseErr   error

	calls    []Call
	applied  []Call
	prepared []string
	copies   []Copy
	rows     []*Rows
	txs      []*Tx
	closed   int
}

// NewConn returns an empty Conn.
func NewConn() *Conn {
	return &Conn{results: make(map[string]Result)}
}

// On scripts the reply to sql, matched after placeholder rewriting.
func (c *Conn) On(sql string, r Result) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[sql] = r
	return c
}

func (c *Conn) lookup(sql string) Result {
	if r, ok := c.results[sql]; ok {
		return r
	}
	return c.Default
}

func (c *Conn) record(sql string, args []any, tx *Tx) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	call := Call{SQL: sql, Args: args, InTx: tx != nil}
	c.calls = append(c.calls, call)
	r := c.lookup(sql)
	if r.Err == nil {
		if tx != nil {
			tx.pending = append(tx.pending, call)
		} else {
			c.applied = append(c.applied, call)
		}
	}
	return r
}

func (c *Conn) query(ctx context.Context, sql string, args []any, tx *Tx) (pgx.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := c.record(sql, args, tx)
	if r.Err != nil {
		return nil, r.Err
	}
	rows := newRows(ctx, r, args)
	c.mu.Lock()
	c.rows = append(c.rows, rows)
	c.mu.Unlock()
	return rows, nil
}

func (c *Conn) exec(ctx context.Context, sql string, args []any, tx *Tx) (pgconn.CommandTag, error) {
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}
	r := c.record(sql, args, tx)
	if r.Err != nil {
		return pgconn.CommandTag{}, r.Err
	}
	return r.Tag, nil
}

func (c *Conn) copyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.CopyErr != nil {
		return 0, c.CopyErr
	}
	cp := Copy{Table: table, Columns: columns}
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		cp.Rows = append(cp.Rows, vals)
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.copies = append(c.copies, cp)
	c.mu.Unlock()
	return int64(len(cp.Rows)), nil
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.query(ctx, sql, args, nil)
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.exec(ctx, sql, args, nil)
}

func (c *Conn) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	if c.PrepareErr != nil {
		return nil, c.PrepareErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prepared = append(c.prepared, name)
	return &pgconn.StatementDescription{Name: name, SQL: sql}, nil
}

func (c *Conn) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	return c.copyFrom(ctx, table, columns, src)
}

func (c *Conn) Begin(ctx context.Context) (pgx.Tx, error) {
	if c.BeginErr != nil {
		return nil, c.BeginErr
	}
	tx := &Tx{conn: c}
	c.mu.Lock()
	c.txs = append(c.txs, tx)
	c.mu.Unlock()
	return tx, nil
}

func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return c.CloseErr
}

// Calls returns every statement received, in order.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Applied returns the statements that took effect: those run outside a
// transaction and those of committed transactions.
func (c *Conn) Applied() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.applied...)
}

// Prepared returns the names of prepared statements.
func (c *Conn) Prepared() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prepared...)
}

// Copies returns the recorded CopyFrom invocations.
func (c *Conn) Copies() []Copy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Copy(nil), c.copies...)
}

// Cursors returns every Rows handed out, in order.
func (c *Conn) Cursors() []*Rows {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Rows(nil), c.rows...)
}

// Txs returns every transaction begun.
func (c *Conn) Txs() []*Tx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Tx(nil), c.txs...)
}

// Closed reports how many times Close was called.
func (c *Conn) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
