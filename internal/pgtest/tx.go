package pgtest

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tx is a transaction on a Conn. Its statements take effect on the Conn
// only when it commits.
type Tx struct {
	conn    *Conn
	pending []Call

	committed  bool
	rolledBack bool
}

var _ pgx.Tx = (*Tx)(nil)

func (t *Tx) done() bool { return t.committed || t.rolledBack }

func (t *Tx) Commit(ctx context.Context) error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.done() {
		return pgx.ErrTxClosed
	}
	if t.conn.CommitErr != nil {
		t.rolledBack = true
		t.pending = nil
		return t.conn.CommitErr
	}
	t.committed = true
	t.conn.applied = append(t.conn.applied, t.pending...)
	t.pending = nil
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.done() {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	t.pending = nil
	return nil
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.conn.query(ctx, sql, args, t)
}

func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.conn.exec(ctx, sql, args, t)
}

func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return t.conn.Prepare(ctx, name, sql)
}

func (t *Tx) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	return t.conn.copyFrom(ctx, table, columns, src)
}

func (t *Tx) Begin(context.Context) (pgx.Tx, error) { return nil, ErrUnsupported }
func (t *Tx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }
func (t *Tx) Conn() *pgx.Conn { return nil }

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	rows, err := t.Query(ctx, sql, args...)
	return errRow{rows: rows, err: err}
}

type errRow struct {
	rows pgx.Rows
	err  error
}

func (r errRow) Scan(...any) error {
	if r.rows != nil {
		r.rows.Close()
	}
	if r.err != nil {
		return r.err
	}
	return ErrUnsupported
}

// Committed reports whether the transaction committed.
func (t *Tx) Committed() bool {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	return t.committed
}

// RolledBack reports whether the transaction rolled back.
func (t *Tx) RolledBack() bool {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	return t.rolledBack
}
