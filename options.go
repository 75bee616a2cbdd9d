package sqlfn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Options describes one execution: where to connect, what to run and how.
// It is immutable; every With method returns a modified copy and leaves the
// receiver untouched, so a base Options can be shared and specialised.
type Options struct {
	dsn       string
	conn      Conn
	connector Connector

	query     string
	procedure string
	params    []Param

	timeout time.Duration
	prepare bool
	cancel  context.Context

	logger *slog.Logger
	hooks  []Hook
}

// FromConnectionString starts Options that open (and close) their own
// connection per call.
func FromConnectionString(dsn string) Options {
	return Options{dsn: dsn}
}

// FromConnection starts Options that reuse conn. sqlfn never closes it.
func FromConnection(conn Conn) Options {
	return Options{conn: conn}
}

// WithConnection switches to a caller-owned connection.
func (o Options) WithConnection(conn Conn) Options {
	o.conn = conn
	return o
}

// WithConnectionString switches to per-call connections opened from dsn.
func (o Options) WithConnectionString(dsn string) Options {
	o.dsn = dsn
	o.conn = nil
	return o
}

// WithConnector replaces the function used to open connections.
func (o Options) WithConnector(c Connector) Options {
	o.connector = c
	return o
}

// WithQuery sets the statement text.
func (o Options) WithQuery(query string) Options {
	o.query = query
	o.procedure = ""
	return o
}

// WithQueries sets several statements, joined by newlines. Only Exec
// without parameters runs more than one statement; the query family and
// anything with parameters go through the extended protocol, which accepts
// a single statement.
func (o Options) WithQueries(queries ...string) Options {
	return o.WithQuery(strings.Join(queries, "\n"))
}

// WithProcedure runs a stored procedure through CALL, passing the
// parameters in the order they were added.
func (o Options) WithProcedure(name string) Options {
	o.procedure = name
	o.query = ""
	return o
}

// WithParams appends parameters, keeping their order.
func (o Options) WithParams(params ...Param) Options {
	o.params = append(slices.Clip(o.params), params...)
	return o
}

// ClearParams drops every parameter.
func (o Options) ClearParams() Options {
	o.params = nil
	return o
}

// WithTimeout bounds every call made with these options.
func (o Options) WithTimeout(d time.Duration) Options {
	o.timeout = d
	return o
}

// WithPrepare prepares statements before executing them.
func (o Options) WithPrepare(prepare bool) Options {
	o.prepare = prepare
	return o
}

// WithCancel adds a cancellation signal merged with the context of each
// call: the work stops when either is done.
func (o Options) WithCancel(ctx context.Context) Options {
	o.cancel = ctx
	return o
}

// WithLogger sets the logger. The default discards everything.
func (o Options) WithLogger(logger *slog.Logger) Options {
	o.logger = logger
	return o
}

// WithHooks appends execution hooks.
func (o Options) WithHooks(hooks ...Hook) Options {
	o.hooks = append(slices.Clip(o.hooks), hooks...)
	return o
}

// Query returns the statement text that will run.
func (o Options) Query() string {
	text, _ := o.text()
	return text
}

// Params returns a copy of the parameters.
func (o Options) Params() []Param {
	return slices.Clone(o.params)
}

// Timeout returns the configured timeout, zero when unset.
func (o Options) Timeout() time.Duration { return o.timeout }

func (o Options) text() (string, error) {
	if o.procedure != "" {
		placeholders := make([]string, len(o.params))
		for i, p := range o.params {
			placeholders[i] = "@" + p.key()
		}
		return fmt.Sprintf("CALL %s(%s)", o.procedure, strings.Join(placeholders, ", ")), nil
	}
	if strings.TrimSpace(o.query) == "" {
		return "", ErrNoQuery
	}
	return o.query, nil
}

func (o Options) context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := mergeCancel(ctx, o.cancel)
	if o.timeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, o.timeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

func (o Options) log() *slog.Logger {
	if o.logger == nil {
		return discard
	}
	return o.logger
}

var discard = slog.New(slog.DiscardHandler)

// mergeCancel derives a context from ctx that is also cancelled, with the
// same cause, when other is done.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	if other == nil {
		return context.WithCancel(ctx)
	}
	merged, cancel := context.WithCancelCause(ctx)
	if other.Err() != nil {
		cancel(context.Cause(other))
	}
	stop := context.AfterFunc(other, func() {
		cancel(context.Cause(other))
	})
	return merged, func() {
		stop()
		cancel(context.Canceled)
	}
}
