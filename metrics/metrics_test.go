package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqlfn"
)

func TestHookRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "sqlfn", nil)
	require.NoError(t, err)

	h.After(context.Background(), &sqlfn.Event{Op: sqlfn.OpQuery, Duration: 20 * time.Millisecond, Rows: 3})
	h.After(context.Background(), &sqlfn.Event{Op: sqlfn.OpQuery, Duration: time.Millisecond, Rows: 2})
	h.After(context.Background(), &sqlfn.Event{Op: sqlfn.OpExec, Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(h.executions.WithLabelValues("query", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.executions.WithLabelValues("exec", "error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(h.rows.WithLabelValues("query")))
	assert.Equal(t, 2, testutil.CollectAndCount(h.duration))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "sqlfn", nil)
	require.NoError(t, err)

	_, err = New(reg, "sqlfn", nil)
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("wrapped: %w", context.Canceled), "canceled"},
		{context.DeadlineExceeded, "timeout"},
		{&sqlfn.QueryError{Op: sqlfn.OpExec, Cause: &pgconn.PgError{Code: "23505"}}, "sqlstate_23"},
		{errors.New("other"), "error"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Status(tc.err))
	}
}

func TestHandlerServesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "sqlfn", nil)
	require.NoError(t, err)
	h.After(context.Background(), &sqlfn.Event{Op: sqlfn.OpCopy, Rows: 10})

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sqlfn_rows_total{op="copy"} 10`)
}
