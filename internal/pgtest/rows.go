package pgtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Rows replays a Result one row at a time and records how far it was read.
type Rows struct {
	ctx    context.Context
	result Result

	mu     sync.Mutex
	pos    int
	read   int
	closed bool
	err    error
}

var _ pgx.Rows = (*Rows)(nil)

func newRows(ctx context.Context, r Result, args []any) *Rows {
	if r.Echo {
		r.Rows = [][]any{append([]any(nil), args...)}
	}
	return &Rows{ctx: ctx, result: r, pos: -1}
}

func (r *Rows) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.err = err
		r.closed = true
		return false
	}
	if r.pos+1 >= len(r.result.Rows) {
		r.err = r.result.RowErr
		r.closed = true
		return false
	}
	r.pos++
	r.read++
	return true
}

func (r *Rows) Values() ([]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos < 0 || r.pos >= len(r.result.Rows) {
		return nil, fmt.Errorf("pgtest: no current row")
	}
	return append([]any(nil), r.result.Rows[r.pos]...), nil
}

func (r *Rows) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Rows) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Rows) CommandTag() pgconn.CommandTag {
	if r.result.Tag.String() != "" {
		return r.result.Tag
	}
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.result.Rows)))
}

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return r.result.Fields }
func (r *Rows) Scan(...any) error { return ErrUnsupported }
func (r *Rows) RawValues() [][]byte { return nil }
func (r *Rows) Conn() *pgx.Conn { return nil }

// Read reports how many rows were advanced to.
func (r *Rows) Read() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read
}

// IsClosed reports whether the cursor was closed or exhausted.
func (r *Rows) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
