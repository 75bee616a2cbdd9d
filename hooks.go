package sqlfn

import (
	"context"
	"log/slog"
	"time"
)

// Operation names the entry point that ran a statement.
type Operation string

const (
	OpQuery       Operation = "query"
	OpQuerySingle Operation = "query_single"
	OpExec        Operation = "exec"
	OpForEach     Operation = "for_each"
	OpStream      Operation = "stream"
	OpTransaction Operation = "transaction"
	OpCopy        Operation = "copy"
)

// Event describes one statement execution. Before hooks see Op, Query,
// Params and Start; After hooks also see Duration, Rows and Err.
type Event struct {
	Op       Operation
	Query    string
	Params   int
	Start    time.Time
	Duration time.Duration
	Rows     int64
	Err      error
}

// Hook observes executions. Before may return a derived context (for
// example one carrying a span); After receives that context.
type Hook interface {
	Before(ctx context.Context, e *Event) context.Context
	After(ctx context.Context, e *Event)
}

// observe starts an Event and returns the context to run under and the
// function that finishes it.
func (o Options) observe(ctx context.Context, op Operation, query string, params int) (context.Context, func(rows int64, err error)) {
	e := &Event{Op: op, Query: query, Params: params, Start: time.Now()}
	for _, h := range o.hooks {
		ctx = h.Before(ctx, e)
	}
	logger := o.log()
	logger.Debug("execute", slog.String("op", string(op)), slog.Int("params", params))

	return ctx, func(rows int64, err error) {
		e.Duration = time.Since(e.Start)
		e.Rows = rows
		e.Err = err
		if err != nil {
			logger.Debug("execute failed",
				slog.String("op", string(op)),
				slog.Duration("duration", e.Duration),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("execute done",
				slog.String("op", string(op)),
				slog.Duration("duration", e.Duration),
				slog.Int64("rows", rows),
			)
		}
		for i := len(o.hooks) - 1; i >= 0; i-- {
			o.hooks[i].After(ctx, e)
		}
	}
}
