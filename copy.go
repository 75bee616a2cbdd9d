package sqlfn

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

// CopyFrom bulk-writes src into table through the COPY protocol and returns
// the number of rows written. It shares connection handling, cancellation
// and hooks with the other entry points.
func CopyFrom(ctx context.Context, o Options, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	name := strings.Join(table, ".")
	var n int64
	err := Use(ctx, o, func(ctx context.Context, conn Conn) (err error) {
		ctx, done := o.observe(ctx, OpCopy, name, len(columns))
		defer func() { done(n, err) }()

		n, err = conn.CopyFrom(ctx, table, columns, src)
		if err != nil {
			return &QueryError{Op: OpCopy, Query: name, Cause: err}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
