package sqlfn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/internal/pgtest"
)

func TestTransactionCommits(t *testing.T) {
	conn := pgtest.NewConn().
		On("INSERT INTO users (name) VALUES ($1)", pgtest.Result{Tag: pgconn.NewCommandTag("INSERT 0 1")}).
		On("UPDATE stats SET users = users + 1", pgtest.Result{Tag: pgconn.NewCommandTag("UPDATE 1")})

	counts, err := sqlfn.Transaction(context.Background(), owned(conn, nil),
		sqlfn.Stmt("INSERT INTO users (name) VALUES (@name)", sqlfn.String("name", "jane")),
		sqlfn.Stmt("UPDATE stats SET users = users + 1"),
	)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1}, counts)

	txs := conn.Txs()
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Committed())
	assert.Len(t, conn.Applied(), 2)
	for _, c := range conn.Calls() {
		assert.True(t, c.InTx)
	}
	assert.Equal(t, 1, conn.Closed())
}

func TestTransactionIsAtomic(t *testing.T) {
	conn := pgtest.NewConn().
		On("INSERT INTO users (name) VALUES ($1)", pgtest.Result{Tag: pgconn.NewCommandTag("INSERT 0 1")}).
		On("INSERT INTO users (id) VALUES ($1)", pgtest.Result{Err: &pgconn.PgError{Code: "23505", Message: "duplicate key"}})

	counts, err := sqlfn.Transaction(context.Background(), owned(conn, nil),
		sqlfn.Stmt("INSERT INTO users (name) VALUES (@name)", sqlfn.String("name", "jane")),
		sqlfn.Stmt("INSERT INTO users (id) VALUES (@id)", sqlfn.Int("id", 1)),
	)
	require.Error(t, err)
	assert.Nil(t, counts)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)

	txs := conn.Txs()
	require.Len(t, txs, 1)
	assert.True(t, txs[0].RolledBack())
	assert.False(t, txs[0].Committed())
	assert.Empty(t, conn.Applied())
	assert.Equal(t, 1, conn.Closed())
}

func TestTransactionBeginFails(t *testing.T) {
	conn := pgtest.NewConn()
	conn.BeginErr = errors.New("too many connections")

	_, err := sqlfn.Transaction(context.Background(), owned(conn, nil), sqlfn.Stmt("SELECT 1"))
	var qerr *sqlfn.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, sqlfn.OpTransaction, qerr.Op)
	assert.Empty(t, conn.Calls())
}

func TestTransactionCommitFails(t *testing.T) {
	conn := pgtest.NewConn()
	conn.CommitErr = errors.New("serialization failure")

	_, err := sqlfn.Transaction(context.Background(), owned(conn, nil), sqlfn.Stmt("UPDATE t SET x = 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serialization failure")
	assert.Empty(t, conn.Applied())
}

func TestInTransactionMixesCalls(t *testing.T) {
	conn := pgtest.NewConn()
	conn.Default = numbers(3)

	var total int32
	err := sqlfn.InTransaction(context.Background(), sqlfn.FromConnection(conn), func(ctx context.Context, tx sqlfn.Options) error {
		ns, err := sqlfn.Query(ctx, tx.WithQuery("SELECT n FROM t"), decodeN)
		if err != nil {
			return err
		}
		for _, n := range ns {
			total += n
		}
		_, err = sqlfn.Exec(ctx, tx.WithQuery("DELETE FROM t"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int32(6), total)

	calls := conn.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].InTx)
	assert.True(t, calls[1].InTx)
	assert.True(t, conn.Txs()[0].Committed())
	assert.Zero(t, conn.Closed())
}

func TestInTransactionCallbackError(t *testing.T) {
	conn := pgtest.NewConn()
	abort := errors.New("abort")

	err := sqlfn.InTransaction(context.Background(), sqlfn.FromConnection(conn), func(ctx context.Context, tx sqlfn.Options) error {
		if _, err := sqlfn.Exec(ctx, tx.WithQuery("DELETE FROM t")); err != nil {
			return err
		}
		return abort
	})
	assert.ErrorIs(t, err, abort)
	assert.True(t, conn.Txs()[0].RolledBack())
	assert.Empty(t, conn.Applied())
}
