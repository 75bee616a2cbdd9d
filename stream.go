package sqlfn

import (
	"context"
	"iter"

	"github.com/joacominatel/sqlfn/value"
)

// Stream returns a lazy sequence over the decoded rows. Nothing runs until
// the sequence is ranged over; each range opens its own cursor and reads one
// row per step. Breaking out of the loop closes the cursor and, for an owned
// connection, the connection. A failure is yielded once as the final pair.
func Stream[T any](ctx context.Context, o Options, decode RowDecoder[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		stopped := false
		_, err := run(ctx, o, OpStream, func(row value.Row) error {
			v, err := decode(row)
			if err != nil {
				return err
			}
			if !yield(v, nil) {
				stopped = true
				return errStop
			}
			return nil
		})
		if err != nil && !stopped {
			var zero T
			yield(zero, err)
		}
	}
}
