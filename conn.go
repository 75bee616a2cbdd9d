package sqlfn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn is the part of *pgx.Conn that sqlfn drives. *pgx.Conn satisfies it;
// tests and wrappers may supply their own.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close(ctx context.Context) error
}

// Connector opens a new connection for a connection string.
type Connector func(ctx context.Context, dsn string) (Conn, error)

var _ Conn = (*pgx.Conn)(nil)

// PgxConnector opens a single, unpooled pgx connection.
func PgxConnector(ctx context.Context, dsn string) (Conn, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return conn, nil
}

// Open returns a connection for o. When o carries a connection it is returned
// as is; otherwise a new one is opened and the caller must close it.
func Open(ctx context.Context, o Options) (Conn, error) {
	conn, _, err := o.open(ctx)
	return conn, err
}

// Use runs fn with a connection scoped to the call. A connection opened here
// is closed on every exit path; a connection supplied through
// FromConnection or WithConnection is left open for its owner.
func Use(ctx context.Context, o Options, fn func(ctx context.Context, conn Conn) error) (err error) {
	ctx, cancel := o.context(ctx)
	defer cancel()

	conn, owned, err := o.open(ctx)
	if err != nil {
		return err
	}
	if owned {
		defer func() {
			// Close must run even when ctx is already done.
			if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
				o.log().Warn("close connection", slog.String("error", cerr.Error()))
				if err == nil {
					err = &ConnectError{Cause: cerr}
				}
			}
			o.log().Debug("connection closed")
		}()
	}
	return fn(ctx, conn)
}

func (o Options) open(ctx context.Context) (Conn, bool, error) {
	if o.conn != nil {
		return o.conn, false, nil
	}
	if o.dsn == "" {
		return nil, false, ErrNoConnection
	}
	connect := o.connector
	if connect == nil {
		connect = PgxConnector
	}
	o.log().Debug("opening connection")
	conn, err := connect(ctx, o.dsn)
	if err != nil {
		return nil, false, &ConnectError{Cause: err}
	}
	return conn, true, nil
}
