package value

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Reader composes optional reads over one row into an all-or-nothing
// record: every read returns the zero value when absent, and OK reports
// false once any read came back absent.
//
//	r := value.NewReader(row)
//	u := User{ID: r.Int("id"), Name: r.String("name")}
//	if !r.OK() {
//	    // at least one column was missing, NULL or of another kind
//	}
type Reader struct {
	row     Row
	missing []string
}

// NewReader starts a Reader over row.
func NewReader(row Row) *Reader {
	return &Reader{row: row}
}

// OK reports whether every read so far was present.
func (r *Reader) OK() bool { return len(r.missing) == 0 }

// Missing lists the columns whose reads were absent, in read order.
func (r *Reader) Missing() []string { return r.missing }

func track[T any](r *Reader, name string, v T, ok bool) T {
	if !ok {
		r.missing = append(r.missing, name)
	}
	return v
}

func (r *Reader) TinyInt(name string) uint8 {
	v, ok := ReadTinyInt(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) SmallInt(name string) int16 {
	v, ok := ReadSmallInt(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) Int(name string) int32 {
	v, ok := ReadInt(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) BigInt(name string) int64 {
	v, ok := ReadBigInt(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) String(name string) string {
	v, ok := ReadString(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) DateTime(name string) time.Time {
	v, ok := ReadDateTime(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) DateTimeOffset(name string) time.Time {
	v, ok := ReadDateTimeOffset(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) Bool(name string) bool {
	v, ok := ReadBool(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) Float(name string) float64 {
	v, ok := ReadFloat(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) Decimal(name string) pgtype.Numeric {
	v, ok := ReadDecimal(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) Binary(name string) []byte {
	v, ok := ReadBinary(name, r.row)
	return track(r, name, v, ok)
}

func (r *Reader) UUID(name string) uuid.UUID {
	v, ok := ReadUUID(name, r.row)
	return track(r, name, v, ok)
}

// Decode runs build over a fresh Reader and returns its record only when
// every read inside build was present.
func Decode[T any](row Row, build func(r *Reader) T) (T, bool) {
	r := NewReader(row)
	out := build(r)
	if !r.OK() {
		var zero T
		return zero, false
	}
	return out, true
}
