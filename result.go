package sqlfn

import "context"

// Result carries either a value or the error that prevented it.
type Result[T any] struct {
	Value T
	Err   error
}

// Try packs a (value, error) pair.
func Try[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool { return r.Err == nil }

// Unwrap returns the pair back.
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }

func TryQuery[T any](ctx context.Context, o Options, decode RowDecoder[T]) Result[[]T] {
	return Try(Query(ctx, o, decode))
}

func TryQuerySingle[T any](ctx context.Context, o Options, decode RowDecoder[T]) Result[T] {
	return Try(QuerySingle(ctx, o, decode))
}

func TryExec(ctx context.Context, o Options) Result[int64] {
	return Try(Exec(ctx, o))
}

// Async runs fn on its own goroutine. The channel receives exactly one
// Result and is then closed.
func Async[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		ch <- Try(fn(ctx))
	}()
	return ch
}

func QueryAsync[T any](ctx context.Context, o Options, decode RowDecoder[T]) <-chan Result[[]T] {
	return Async(ctx, func(ctx context.Context) ([]T, error) {
		return Query(ctx, o, decode)
	})
}

func QuerySingleAsync[T any](ctx context.Context, o Options, decode RowDecoder[T]) <-chan Result[T] {
	return Async(ctx, func(ctx context.Context) (T, error) {
		return QuerySingle(ctx, o, decode)
	})
}

func ExecAsync(ctx context.Context, o Options) <-chan Result[int64] {
	return Async(ctx, func(ctx context.Context) (int64, error) {
		return Exec(ctx, o)
	})
}
