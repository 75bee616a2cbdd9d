package sqlfn_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/value"
)

// liveDSN skips the test unless SQLFN_TEST_DSN points at a PostgreSQL
// server the test may create temporary tables on.
func liveDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("SQLFN_TEST_DSN")
	if dsn == "" {
		t.Skip("SQLFN_TEST_DSN not set")
	}
	return dsn
}

func TestLiveRoundTrip(t *testing.T) {
	dsn := liveDSN(t)
	ctx := context.Background()

	o := sqlfn.FromConnectionString(dsn).
		WithQuery("SELECT @userId::int4 AS id, @username::text AS name").
		WithParams(sqlfn.Int("@userId", 5), sqlfn.String("@username", "jane"))
	users, err := sqlfn.Query(ctx, o, decodeUser)
	require.NoError(t, err)
	assert.Equal(t, []user{{ID: 5, Name: "jane"}}, users)

	id := uuid.New()
	row, err := sqlfn.QuerySingle(ctx, sqlfn.FromConnectionString(dsn).
		WithQuery("SELECT @b::bytea AS b, @u::uuid AS u, @n::text AS n").
		WithParams(sqlfn.Binary("b", []byte{1, 2, 3}), sqlfn.UUID("u", id), sqlfn.Null("n")), sqlfn.AsRow)
	require.NoError(t, err)

	b, err := value.GetBinary("b", row)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)
	u, err := value.GetUUID("u", row)
	require.NoError(t, err)
	assert.Equal(t, id, u)
	_, ok := value.ReadString("n", row)
	assert.False(t, ok)
}

func TestLiveTransactionAtomicity(t *testing.T) {
	dsn := liveDSN(t)
	ctx := context.Background()

	conn, err := sqlfn.Open(ctx, sqlfn.FromConnectionString(dsn))
	require.NoError(t, err)
	defer conn.Close(ctx)

	o := sqlfn.FromConnection(conn)
	_, err = sqlfn.Exec(ctx, o.WithQuery("CREATE TEMP TABLE sqlfn_atomic (id int PRIMARY KEY)"))
	require.NoError(t, err)

	_, err = sqlfn.Transaction(ctx, o,
		sqlfn.Stmt("INSERT INTO sqlfn_atomic (id) VALUES (@id)", sqlfn.Int("id", 1)),
		sqlfn.Stmt("INSERT INTO sqlfn_atomic (id) VALUES (@id)", sqlfn.Int("id", 1)),
	)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)

	count, err := sqlfn.QuerySingle(ctx, o.WithQuery("SELECT count(*) AS n FROM sqlfn_atomic"), func(row value.Row) (int64, error) {
		return value.GetBigInt("n", row)
	})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLivePoolConnector(t *testing.T) {
	dsn := liveDSN(t)
	ctx := context.Background()

	pool := &sqlfn.Pool{MaxConns: 1}
	defer pool.Close()
	o := sqlfn.FromConnectionString(dsn).WithConnector(pool.Connect).WithQuery("SELECT pg_backend_pid() AS pid")

	first, err := sqlfn.QuerySingle(ctx, o, func(row value.Row) (int32, error) { return value.GetInt("pid", row) })
	require.NoError(t, err)
	second, err := sqlfn.QuerySingle(ctx, o, func(row value.Row) (int32, error) { return value.GetInt("pid", row) })
	require.NoError(t, err)
	assert.Equal(t, first, second, "a single-connection pool hands back the same session")
}
