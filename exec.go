package sqlfn

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joacominatel/sqlfn/value"
)

// RowDecoder maps one row to a caller type.
type RowDecoder[T any] func(row value.Row) (T, error)

// AsRow is the identity decoder.
func AsRow(row value.Row) (value.Row, error) { return row, nil }

// ResultSet is a materialized result with its column metadata.
type ResultSet struct {
	Columns      []value.Column
	Rows         value.Table
	RowsAffected int64
	Duration     time.Duration
}

// errStop ends a read loop early without reporting an error.
var errStop = errors.New("sqlfn: stop")

// summary is what the core loop reports besides the rows it hands out.
type summary struct {
	columns []value.Column
	tag     pgconn.CommandTag
	read    int64
}

// run is the single execution loop behind every reading entry point. each is
// called once per row, in order; returning errStop ends the read early.
func run(ctx context.Context, o Options, op Operation, each func(row value.Row) error) (summary, error) {
	var sum summary
	text, err := o.text()
	if err != nil {
		return sum, err
	}
	sql, args, err := bind(text, o.params)
	if err != nil {
		return sum, err
	}

	err = Use(ctx, o, func(ctx context.Context, conn Conn) (err error) {
		ctx, done := o.observe(ctx, op, text, len(args))
		defer func() { done(sum.read, err) }()

		if err := prepare(ctx, o, conn, sql); err != nil {
			return &QueryError{Op: op, Query: text, Cause: err}
		}
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return &QueryError{Op: op, Query: text, Cause: err}
		}
		defer rows.Close()

		for rows.Next() {
			if sum.columns == nil {
				sum.columns = columns(rows.FieldDescriptions())
			}
			row, err := readRow(sum.columns, rows)
			if err != nil {
				return err
			}
			sum.read++
			if err := each(row); err != nil {
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return &QueryError{Op: op, Query: text, Cause: err}
		}
		if sum.columns == nil {
			sum.columns = columns(rows.FieldDescriptions())
		}
		sum.tag = rows.CommandTag()
		return nil
	})
	return sum, err
}

func prepare(ctx context.Context, o Options, conn Conn, sql string) error {
	if !o.prepare {
		return nil
	}
	_, err := conn.Prepare(ctx, sql, sql)
	return err
}

func columns(fields []pgconn.FieldDescription) []value.Column {
	cols := make([]value.Column, len(fields))
	for i, f := range fields {
		kind, _ := value.KindForOID(f.DataTypeOID)
		cols[i] = value.Column{
			Name:     f.Name,
			Kind:     kind,
			TypeOID:  f.DataTypeOID,
			TypeName: value.TypeName(f.DataTypeOID),
		}
	}
	return cols
}

func readRow(cols []value.Column, rows pgx.Rows) (value.Row, error) {
	natives, err := rows.Values()
	if err != nil {
		return nil, err
	}
	row := make(value.Row, len(cols))
	for i, c := range cols {
		v, err := value.ClassifyColumn(c.TypeOID, natives[i])
		if err != nil {
			return nil, &value.ColumnError{Column: c.Name, Cause: err}
		}
		row[i] = value.Field{Name: c.Name, Value: v}
	}
	return row, nil
}

// Query runs the statement and decodes every row.
func Query[T any](ctx context.Context, o Options, decode RowDecoder[T]) ([]T, error) {
	var out []T
	_, err := run(ctx, o, OpQuery, func(row value.Row) error {
		v, err := decode(row)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryTable runs the statement and returns the rows undecoded.
func QueryTable(ctx context.Context, o Options) (value.Table, error) {
	rows, err := Query(ctx, o, AsRow)
	return value.Table(rows), err
}

// QueryResult runs the statement and returns rows with column metadata, the
// command tag row count and the elapsed time.
func QueryResult(ctx context.Context, o Options) (*ResultSet, error) {
	start := time.Now()
	var table value.Table
	sum, err := run(ctx, o, OpQuery, func(row value.Row) error {
		table = append(table, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ResultSet{
		Columns:      sum.columns,
		Rows:         table,
		RowsAffected: sum.tag.RowsAffected(),
		Duration:     time.Since(start),
	}, nil
}

// QuerySingle decodes the first row and discards the rest. It returns
// ErrEmptyResult when the statement yields no row.
func QuerySingle[T any](ctx context.Context, o Options, decode RowDecoder[T]) (T, error) {
	var (
		out   T
		found bool
	)
	_, err := run(ctx, o, OpQuerySingle, func(row value.Row) error {
		v, err := decode(row)
		if err != nil {
			return err
		}
		out, found = v, true
		return errStop
	})
	if err != nil {
		return out, err
	}
	if !found {
		return out, ErrEmptyResult
	}
	return out, nil
}

// ForEach calls fn for every row without keeping any of them. An error from
// fn stops the read and is returned as is.
func ForEach(ctx context.Context, o Options, fn func(row value.Row) error) error {
	_, err := run(ctx, o, OpForEach, fn)
	return err
}

// Exec runs the statement for its side effects and returns the affected row
// count. Without parameters the text may hold several statements; it is
// the only operation that runs them.
func Exec(ctx context.Context, o Options) (int64, error) {
	text, err := o.text()
	if err != nil {
		return 0, err
	}
	sql, args, err := bind(text, o.params)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = Use(ctx, o, func(ctx context.Context, conn Conn) (err error) {
		ctx, done := o.observe(ctx, OpExec, text, len(args))
		defer func() { done(affected, err) }()

		if err := prepare(ctx, o, conn, sql); err != nil {
			return &QueryError{Op: OpExec, Query: text, Cause: err}
		}
		tag, err := conn.Exec(ctx, sql, args...)
		if err != nil {
			return &QueryError{Op: OpExec, Query: text, Cause: err}
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
