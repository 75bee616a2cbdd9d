// Package tracing records sqlfn executions as OpenTelemetry spans.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joacominatel/sqlfn"
)

const instrumentation = "github.com/joacominatel/sqlfn"

// Common attribute keys for sqlfn spans
var (
	AttrSystem    = attribute.Key("db.system")
	AttrOperation = attribute.Key("db.operation")
	AttrStatement = attribute.Key("db.statement")
	AttrParams    = attribute.Key("sqlfn.params")
	AttrRows      = attribute.Key("sqlfn.rows")
)

// Hook starts a client span per execution.
type Hook struct {
	tracer    trace.Tracer
	statement bool
}

var _ sqlfn.Hook = (*Hook)(nil)

// Option configures a Hook.
type Option func(*Hook)

// WithStatement records the statement text on spans.
func WithStatement() Option {
	return func(h *Hook) { h.statement = true }
}

// New returns a Hook using tp, or the global provider when tp is nil.
func New(tp trace.TracerProvider, opts ...Option) *Hook {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	h := &Hook{tracer: tp.Tracer(instrumentation)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hook) Before(ctx context.Context, e *sqlfn.Event) context.Context {
	attrs := []attribute.KeyValue{
		AttrSystem.String("postgresql"),
		AttrOperation.String(string(e.Op)),
		AttrParams.Int(e.Params),
	}
	if h.statement {
		attrs = append(attrs, AttrStatement.String(e.Query))
	}
	ctx, _ = h.tracer.Start(ctx, "sqlfn."+string(e.Op),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
	)
	return ctx
}

func (h *Hook) After(ctx context.Context, e *sqlfn.Event) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(AttrRows.Int64(e.Rows))
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.Start.Add(e.Duration)))
}
