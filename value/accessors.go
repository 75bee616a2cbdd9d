package value

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// unwrap returns the payload of v when it holds want, and a MismatchError
// otherwise. NULL is a mismatch for every non-null kind.
func unwrap[T any](v Value, want Kind) (T, error) {
	var zero T
	if v.kind != want {
		return zero, &MismatchError{Expected: want, Actual: v.kind}
	}
	return v.v.(T), nil
}

func read[T any](name string, row Row, want Kind) (T, bool) {
	v, ok := row.Get(name)
	if !ok {
		var zero T
		return zero, false
	}
	x, err := unwrap[T](v, want)
	return x, err == nil
}

func readAt[T any](i int, row Row, want Kind) (T, bool) {
	f, ok := row.At(i)
	if !ok {
		var zero T
		return zero, false
	}
	x, err := unwrap[T](f.Value, want)
	return x, err == nil
}

func get[T any](name string, row Row, want Kind) (T, error) {
	var zero T
	v, err := row.Lookup(name)
	if err != nil {
		return zero, err
	}
	if v.IsNull() {
		return zero, &ColumnError{Column: name, Cause: ErrNull}
	}
	x, err := unwrap[T](v, want)
	if err != nil {
		return zero, &ColumnError{Column: name, Cause: err}
	}
	return x, nil
}

// To* unwrap a Value of the matching kind and fail with a MismatchError on
// any other kind, NULL included.

func ToTinyInt(v Value) (uint8, error) { return unwrap[uint8](v, KindTinyInt) }
func ToSmallInt(v Value) (int16, error) { return unwrap[int16](v, KindSmallInt) }
func ToInt(v Value) (int32, error) { return unwrap[int32](v, KindInt) }
func ToBigInt(v Value) (int64, error) { return unwrap[int64](v, KindBigInt) }
func ToString(v Value) (string, error) { return unwrap[string](v, KindString) }
func ToDateTime(v Value) (time.Time, error) { return unwrap[time.Time](v, KindDateTime) }
func ToDateTimeOffset(v Value) (time.Time, error) { return unwrap[time.Time](v, KindDateTimeOffset) }
func ToBool(v Value) (bool, error) { return unwrap[bool](v, KindBool) }
func ToFloat(v Value) (float64, error) { return unwrap[float64](v, KindFloat) }
func ToDecimal(v Value) (pgtype.Numeric, error) { return unwrap[pgtype.Numeric](v, KindDecimal) }
func ToUUID(v Value) (uuid.UUID, error) { return unwrap[uuid.UUID](v, KindUUID) }

// ToBinary returns a copy of the bytes held by v.
func ToBinary(v Value) ([]byte, error) {
	b, err := unwrap[[]byte](v, KindBinary)
	return bytes.Clone(b), err
}

// Read* look up a column by name. The result is present only when the
// column exists, is not NULL and holds the requested kind; every other case
// is absent rather than an error.

func ReadTinyInt(name string, row Row) (uint8, bool) { return read[uint8](name, row, KindTinyInt) }
func ReadSmallInt(name string, row Row) (int16, bool) { return read[int16](name, row, KindSmallInt) }
func ReadInt(name string, row Row) (int32, bool) { return read[int32](name, row, KindInt) }
func ReadBigInt(name string, row Row) (int64, bool) { return read[int64](name, row, KindBigInt) }
func ReadString(name string, row Row) (string, bool) { return read[string](name, row, KindString) }
func ReadDateTime(name string, row Row) (time.Time, bool) { return read[time.Time](name, row, KindDateTime) }
func ReadDateTimeOffset(name string, row Row) (time.Time, bool) { return read[time.Time](name, row, KindDateTimeOffset) }
func ReadBool(name string, row Row) (bool, bool) { return read[bool](name, row, KindBool) }
func ReadFloat(name string, row Row) (float64, bool) { return read[float64](name, row, KindFloat) }
func ReadDecimal(name string, row Row) (pgtype.Numeric, bool) { return read[pgtype.Numeric](name, row, KindDecimal) }
func ReadUUID(name string, row Row) (uuid.UUID, bool) { return read[uuid.UUID](name, row, KindUUID) }

func ReadBinary(name string, row Row) ([]byte, bool) {
	b, ok := read[[]byte](name, row, KindBinary)
	return bytes.Clone(b), ok
}

// Read*At are the positional forms of Read*.

func ReadTinyIntAt(i int, row Row) (uint8, bool) { return readAt[uint8](i, row, KindTinyInt) }
func ReadSmallIntAt(i int, row Row) (int16, bool) { return readAt[int16](i, row, KindSmallInt) }
func ReadIntAt(i int, row Row) (int32, bool) { return readAt[int32](i, row, KindInt) }
func ReadBigIntAt(i int, row Row) (int64, bool) { return readAt[int64](i, row, KindBigInt) }
func ReadStringAt(i int, row Row) (string, bool) { return readAt[string](i, row, KindString) }
func ReadDateTimeAt(i int, row Row) (time.Time, bool) { return readAt[time.Time](i, row, KindDateTime) }
func ReadDateTimeOffsetAt(i int, row Row) (time.Time, bool) { return readAt[time.Time](i, row, KindDateTimeOffset) }
func ReadBoolAt(i int, row Row) (bool, bool) { return readAt[bool](i, row, KindBool) }
func ReadFloatAt(i int, row Row) (float64, bool) { return readAt[float64](i, row, KindFloat) }
func ReadDecimalAt(i int, row Row) (pgtype.Numeric, bool) { return readAt[pgtype.Numeric](i, row, KindDecimal) }
func ReadUUIDAt(i int, row Row) (uuid.UUID, bool) { return readAt[uuid.UUID](i, row, KindUUID) }

func ReadBinaryAt(i int, row Row) ([]byte, bool) {
	b, ok := readAt[[]byte](i, row, KindBinary)
	return bytes.Clone(b), ok
}

// Get* are strict named lookups: a missing column, a NULL or a kind mismatch
// is reported as a *ColumnError.

func GetTinyInt(name string, row Row) (uint8, error) { return get[uint8](name, row, KindTinyInt) }
func GetSmallInt(name string, row Row) (int16, error) { return get[int16](name, row, KindSmallInt) }
func GetInt(name string, row Row) (int32, error) { return get[int32](name, row, KindInt) }
func GetBigInt(name string, row Row) (int64, error) { return get[int64](name, row, KindBigInt) }
func GetString(name string, row Row) (string, error) { return get[string](name, row, KindString) }
func GetDateTime(name string, row Row) (time.Time, error) { return get[time.Time](name, row, KindDateTime) }
func GetDateTimeOffset(name string, row Row) (time.Time, error) { return get[time.Time](name, row, KindDateTimeOffset) }
func GetBool(name string, row Row) (bool, error) { return get[bool](name, row, KindBool) }
func GetFloat(name string, row Row) (float64, error) { return get[float64](name, row, KindFloat) }
func GetDecimal(name string, row Row) (pgtype.Numeric, error) { return get[pgtype.Numeric](name, row, KindDecimal) }
func GetUUID(name string, row Row) (uuid.UUID, error) { return get[uuid.UUID](name, row, KindUUID) }

func GetBinary(name string, row Row) ([]byte, error) {
	b, err := get[[]byte](name, row, KindBinary)
	return bytes.Clone(b), err
}
