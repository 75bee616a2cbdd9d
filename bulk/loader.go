// Package bulk loads rows of typed values into a temporary table through the
// COPY protocol, so a statement can consume them as a table-valued input.
package bulk

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/value"
)

// DefaultBatchSize is the number of rows sent per COPY when Loader.BatchSize
// is not set.
const DefaultBatchSize = 1000

// Loader writes rows into a table described by DDL text.
type Loader struct {
	// BatchSize is the number of rows per COPY. Zero means DefaultBatchSize.
	BatchSize int

	// Columns, when set, is the column order to copy into. It replaces the
	// layout scraped from the DDL; only the table name is read from it.
	Columns []string

	Logger *slog.Logger
}

func (l Loader) batchSize() int {
	if l.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return l.BatchSize
}

func (l Loader) log() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}

// Layout returns the table layout the loader will copy into.
func (l Loader) Layout(ddl string) (*TableMeta, error) {
	if len(l.Columns) == 0 {
		return ParseTableDefinition(ddl)
	}
	table, err := parseTableName(ddl)
	if err != nil {
		return nil, err
	}
	meta := newTableMeta(table, len(l.Columns))
	for i, c := range l.Columns {
		meta.Columns[c] = i
	}
	return meta, nil
}

// Load runs the DDL on conn and copies rows into the table it creates. It
// returns the number of rows written.
func (l Loader) Load(ctx context.Context, conn sqlfn.Conn, ddl string, rows iter.Seq[value.Row]) (int64, error) {
	return l.load(ctx, sqlfn.FromConnection(conn).WithLogger(l.Logger), ddl, rows)
}

func (l Loader) load(ctx context.Context, session sqlfn.Options, ddl string, rows iter.Seq[value.Row]) (int64, error) {
	meta, err := l.Layout(ddl)
	if err != nil {
		return 0, err
	}
	create := session.WithQuery(ddl).ClearParams().WithPrepare(false)
	if _, err := sqlfn.Exec(ctx, create); err != nil {
		return 0, err
	}
	return l.Copy(ctx, session, meta, rows)
}

// Copy writes rows into an existing table in batches. A row column missing
// from the table is ignored; a table column missing from the row is NULL.
func (l Loader) Copy(ctx context.Context, session sqlfn.Options, meta *TableMeta, rows iter.Seq[value.Row]) (int64, error) {
	var (
		table   = meta.Identifier()
		columns = meta.Ordered()
		size    = l.batchSize()
		batch   = make([][]any, 0, size)
		total   int64
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := sqlfn.CopyFrom(ctx, session, table, columns, pgx.CopyFromRows(batch))
		if err != nil {
			return err
		}
		total += n
		l.log().Debug("copied batch",
			slog.String("table", meta.Name),
			slog.Int64("rows", n),
			slog.Int64("total", total),
		)
		batch = batch[:0]
		return nil
	}

	for row := range rows {
		batch = append(batch, project(row, columns))
		if len(batch) == size {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// project orders the row's values to match columns. Names match exactly
// first and then case-insensitively.
func project(row value.Row, columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		v, ok := row.Get(c)
		if !ok {
			v = lookupFold(row, c)
		}
		out[i] = v.Native()
	}
	return out
}

func lookupFold(row value.Row, name string) value.Value {
	for _, f := range row {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return value.Null()
}

// Query creates the table from ddl, loads rows into it and runs the query
// of o on the same session, decoding its result.
func Query[T any](ctx context.Context, l Loader, o sqlfn.Options, ddl string, rows iter.Seq[value.Row], decode sqlfn.RowDecoder[T]) ([]T, error) {
	var out []T
	err := sqlfn.Use(ctx, o, func(ctx context.Context, conn sqlfn.Conn) error {
		session := o.WithConnection(conn)
		if _, err := l.load(ctx, session, ddl, rows); err != nil {
			return err
		}
		var err error
		out, err = sqlfn.Query(ctx, session, decode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Exec is Query for statements run for their side effects. It returns the
// affected row count of the statement.
func Exec(ctx context.Context, l Loader, o sqlfn.Options, ddl string, rows iter.Seq[value.Row]) (int64, error) {
	var affected int64
	err := sqlfn.Use(ctx, o, func(ctx context.Context, conn sqlfn.Conn) error {
		session := o.WithConnection(conn)
		if _, err := l.load(ctx, session, ddl, rows); err != nil {
			return err
		}
		var err error
		affected, err = sqlfn.Exec(ctx, session)
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
