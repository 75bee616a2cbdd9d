package sqlfn_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/internal/pgtest"
	"github.com/joacominatel/sqlfn/value"
)

func TestOptionsAreImmutable(t *testing.T) {
	base := sqlfn.FromConnectionString("postgres://localhost/app").
		WithQuery("SELECT @a, @b").
		WithParams(sqlfn.Int("a", 1))

	left := base.WithParams(sqlfn.Int("b", 2))
	right := base.WithParams(sqlfn.String("b", "two"))
	timed := base.WithTimeout(time.Second)

	require.Len(t, base.Params(), 1)
	require.Len(t, left.Params(), 2)
	require.Len(t, right.Params(), 2)
	assert.Equal(t, value.KindInt, left.Params()[1].Value.Kind())
	assert.Equal(t, value.KindString, right.Params()[1].Value.Kind())

	assert.Zero(t, base.Timeout())
	assert.Equal(t, time.Second, timed.Timeout())

	params := base.Params()
	params[0] = sqlfn.Null("a")
	assert.Equal(t, value.KindInt, base.Params()[0].Value.Kind())
}

func TestOptionsQueryText(t *testing.T) {
	o := sqlfn.FromConnectionString("x")
	assert.Empty(t, o.Query())

	assert.Equal(t, "SELECT 1", o.WithProcedure("p").WithQuery("SELECT 1").Query())
	assert.Equal(t, "CALL p()", o.WithQuery("SELECT 1").WithProcedure("p").Query())
	assert.Equal(t, "a\nb\nc", o.WithQueries("a", "b", "c").Query())
}

func TestOrNullParams(t *testing.T) {
	n := int32(3)
	assert.Equal(t, value.Int(3), sqlfn.IntOrNull("n", &n).Value)
	assert.True(t, sqlfn.IntOrNull("n", nil).Value.IsNull())
	assert.True(t, sqlfn.BinaryOrNull("b", nil).Value.IsNull())
	assert.Equal(t, value.KindBinary, sqlfn.BinaryOrNull("b", []byte{}).Value.Kind())
	assert.True(t, sqlfn.DecimalOrNull("d", nil).Value.IsNull())
	assert.True(t, sqlfn.UUIDOrNull("u", nil).Value.IsNull())
}

func TestCancelSignalIsMerged(t *testing.T) {
	signal, cancel := context.WithCancelCause(context.Background())
	stopped := errors.New("shutdown")

	var wg sync.WaitGroup
	wg.Add(1)
	var observed error
	go func() {
		defer wg.Done()
		_ = sqlfn.Use(context.Background(), sqlfn.FromConnection(pgtest.NewConn()).WithCancel(signal), func(ctx context.Context, _ sqlfn.Conn) error {
			select {
			case <-ctx.Done():
				observed = context.Cause(ctx)
			case <-time.After(5 * time.Second):
			}
			return nil
		})
	}()

	cancel(stopped)
	wg.Wait()
	assert.ErrorIs(t, observed, stopped)
}

func TestCancelSignalReleasedAfterCall(t *testing.T) {
	signal, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inner context.Context
	err := sqlfn.Use(context.Background(), sqlfn.FromConnection(pgtest.NewConn()).WithCancel(signal), func(ctx context.Context, _ sqlfn.Conn) error {
		inner = ctx
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner.Err(), context.Canceled, "call context ends with the call")
	assert.NoError(t, signal.Err())
}
