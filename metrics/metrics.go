// Package metrics exports sqlfn executions as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joacominatel/sqlfn"
)

// Default histogram buckets for statement duration (in seconds)
var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Hook counts executions and observes their duration and row counts.
type Hook struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.CounterVec
}

var _ sqlfn.Hook = (*Hook)(nil)

// New creates the collectors under namespace and registers them with reg.
func New(reg prometheus.Registerer, namespace string, buckets []float64) (*Hook, error) {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	h := &Hook{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Total number of statement executions",
			},
			[]string{"op", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Statement execution duration in seconds",
				Buckets:   buckets,
			},
			[]string{"op"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Rows read, affected or copied",
			},
			[]string{"op"},
		),
	}
	for _, c := range []prometheus.Collector{h.executions, h.duration, h.rows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hook) Before(ctx context.Context, _ *sqlfn.Event) context.Context { return ctx }

func (h *Hook) After(_ context.Context, e *sqlfn.Event) {
	op := string(e.Op)
	h.executions.WithLabelValues(op, Status(e.Err)).Inc()
	h.duration.WithLabelValues(op).Observe(e.Duration.Seconds())
	if e.Rows > 0 {
		h.rows.WithLabelValues(op).Add(float64(e.Rows))
	}
}

// Status buckets an execution error into a low-cardinality label.
func Status(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &pgErr):
		return "sqlstate_" + pgErr.Code[:min(2, len(pgErr.Code))]
	default:
		return "error"
	}
}

// Handler serves the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
