package sqlfn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/internal/pgtest"
	"github.com/joacominatel/sqlfn/value"
)

func numbers(n int) pgtest.Result {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{int32(i + 1)}
	}
	return pgtest.Result{
		Fields: []pgconn.FieldDescription{pgtest.Field("n", pgtype.Int4OID)},
		Rows:   rows,
	}
}

func decodeN(row value.Row) (int32, error) {
	return value.GetInt("n", row)
}

func TestStreamReadsOneRowPerStep(t *testing.T) {
	conn := pgtest.NewConn()
	conn.Default = numbers(5)

	seq := sqlfn.Stream(context.Background(), owned(conn, nil).WithQuery("SELECT n FROM t"), decodeN)
	assert.Empty(t, conn.Calls(), "nothing runs before ranging")

	var got []int32
	for n, err := range seq {
		require.NoError(t, err)
		got = append(got, n)

		cursors := conn.Cursors()
		require.Len(t, cursors, 1)
		assert.Equal(t, len(got), cursors[0].Read())
	}
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, got)
	assert.Equal(t, 1, conn.Closed())
}

func TestStreamBreakReleases(t *testing.T) {
	conn := pgtest.NewConn()
	conn.Default = numbers(100)

	seq := sqlfn.Stream(context.Background(), owned(conn, nil).WithQuery("SELECT n FROM t"), decodeN)
	for n, err := range seq {
		require.NoError(t, err)
		if n == 2 {
			break
		}
	}

	cursor := conn.Cursors()[0]
	assert.Equal(t, 2, cursor.Read())
	assert.True(t, cursor.IsClosed())
	assert.Equal(t, 1, conn.Closed())
}

func TestStreamCursorPerRange(t *testing.T) {
	conn := pgtest.NewConn()
	conn.Default = numbers(2)
	seq := sqlfn.Stream(context.Background(), sqlfn.FromConnection(conn).WithQuery("SELECT n FROM t"), decodeN)

	for range 2 {
		count := 0
		for _, err := range seq {
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, 2, count)
	}
	assert.Len(t, conn.Cursors(), 2)
	assert.Zero(t, conn.Closed())
}

func TestStreamYieldsErrorLast(t *testing.T) {
	conn := pgtest.NewConn()
	result := numbers(2)
	result.RowErr = errors.New("connection reset")
	conn.Default = result

	var (
		got  []int32
		errs []error
	)
	for n, err := range sqlfn.Stream(context.Background(), owned(conn, nil).WithQuery("SELECT n FROM t"), decodeN) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got = append(got, n)
	}
	assert.Equal(t, []int32{1, 2}, got)
	require.Len(t, errs, 1)

	var qerr *sqlfn.QueryError
	assert.ErrorAs(t, errs[0], &qerr)
	assert.Equal(t, sqlfn.OpStream, qerr.Op)
}

func TestStreamDecodeError(t *testing.T) {
	conn := pgtest.NewConn()
	conn.Default = numbers(3)

	var errs []error
	seq := sqlfn.Stream(context.Background(), owned(conn, nil).WithQuery("SELECT n FROM t"), func(row value.Row) (string, error) {
		return value.GetString("n", row)
	})
	for _, err := range seq {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], value.ErrTypeMismatch)
}
