package sqlfn

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// Statement is one step of a Transaction.
type Statement struct {
	Query  string
	Params []Param
}

// Stmt builds a Statement.
func Stmt(query string, params ...Param) Statement {
	return Statement{Query: query, Params: params}
}

// txConn lets a pgx.Tx stand in for a Conn. Its lifetime belongs to the
// transaction, so Close does nothing.
type txConn struct {
	pgx.Tx
}

func (txConn) Close(context.Context) error { return nil }

// InTransaction runs fn inside a transaction. fn receives Options bound to
// the transaction; every call made with them joins it. The transaction is
// committed when fn returns nil and rolled back otherwise.
func InTransaction(ctx context.Context, o Options, fn func(ctx context.Context, tx Options) error) error {
	return Use(ctx, o, func(ctx context.Context, conn Conn) (err error) {
		ctx, done := o.observe(ctx, OpTransaction, "BEGIN", 0)
		defer func() { done(0, err) }()

		tx, err := conn.Begin(ctx)
		if err != nil {
			return &QueryError{Op: OpTransaction, Query: "BEGIN", Cause: err}
		}
		defer func() {
			if err == nil {
				return
			}
			rerr := tx.Rollback(context.WithoutCancel(ctx))
			if rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
				o.log().Warn("rollback failed", slog.String("error", rerr.Error()))
			}
		}()

		bound := o
		bound.conn = txConn{tx}
		bound.cancel = nil
		if err := fn(ctx, bound); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return &QueryError{Op: OpTransaction, Query: "COMMIT", Cause: err}
		}
		return nil
	})
}

// Transaction runs the statements in order inside one transaction and
// returns their affected row counts. Either all of them are committed or,
// on the first failure, none are.
func Transaction(ctx context.Context, o Options, stmts ...Statement) ([]int64, error) {
	counts := make([]int64, 0, len(stmts))
	err := InTransaction(ctx, o, func(ctx context.Context, tx Options) error {
		for _, s := range stmts {
			n, err := Exec(ctx, tx.statement(s))
			if err != nil {
				return err
			}
			counts = append(counts, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (o Options) statement(s Statement) Options {
	o.query = s.Query
	o.procedure = ""
	o.params = s.Params
	return o
}
