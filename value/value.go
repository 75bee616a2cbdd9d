// Package value holds the tagged cell model used by sqlfn: a closed set of
// scalar kinds, rows as ordered name/value pairs, and strict accessors that
// never coerce across kinds.
package value

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindTinyInt
	KindSmallInt
	KindInt
	KindBigInt
	KindString
	KindDateTime
	KindDateTimeOffset
	KindBool
	KindFloat
	KindDecimal
	KindBinary
	KindUUID
)

var kindNames = [...]string{
	KindNull:           "null",
	KindTinyInt:        "tinyint",
	KindSmallInt:       "smallint",
	KindInt:            "int",
	KindBigInt:         "bigint",
	KindString:         "string",
	KindDateTime:       "datetime",
	KindDateTimeOffset: "datetimeoffset",
	KindBool:           "bool",
	KindFloat:          "float",
	KindDecimal:        "decimal",
	KindBinary:         "binary",
	KindUUID:           "uuid",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Numeric reports whether the kind holds a number.
func (k Kind) Numeric() bool {
	switch k {
	case KindTinyInt, KindSmallInt, KindInt, KindBigInt, KindFloat, KindDecimal:
		return true
	}
	return false
}

// Value is an immutable database cell. The zero Value is NULL.
type Value struct {
	kind Kind
	v    any
}

// Constructors for each variant. Binary copies its input.

func TinyInt(v uint8) Value { return Value{kind: KindTinyInt, v: v} }
func SmallInt(v int16) Value { return Value{kind: KindSmallInt, v: v} }
func Int(v int32) Value { return Value{kind: KindInt, v: v} }
func BigInt(v int64) Value { return Value{kind: KindBigInt, v: v} }
func String(v string) Value { return Value{kind: KindString, v: v} }
func DateTime(v time.Time) Value { return Value{kind: KindDateTime, v: v} }
func DateTimeOffset(v time.Time) Value { return Value{kind: KindDateTimeOffset, v: v} }
func Bool(v bool) Value { return Value{kind: KindBool, v: v} }
func Float(v float64) Value { return Value{kind: KindFloat, v: v} }
func UUID(v uuid.UUID) Value { return Value{kind: KindUUID, v: v} }
func Null() Value { return Value{} }
func Binary(v []byte) Value { return Value{kind: KindBinary, v: bytes.Clone(nonNilBytes(v))} }

// Decimal wraps a fixed-point number. An invalid (SQL NULL) numeric yields NULL.
func Decimal(v pgtype.Numeric) Value {
	if !v.Valid {
		return Null()
	}
	return Value{kind: KindDecimal, v: v}
}

// ParseDecimal builds a Decimal from its text form, e.g. "12.50".
func ParseDecimal(s string) (Value, error) {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return Value{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal(n), nil
}

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the NULL variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Native returns the Go value handed to pgx when v is bound as an argument.
// NULL maps to nil.
func (v Value) Native() any {
	if v.kind == KindBinary {
		return bytes.Clone(v.v.([]byte))
	}
	return v.v
}

// String renders v for display. NULL renders as "NULL".
func (v Value) String() string {
	switch x := v.v.(type) {
	case nil:
		return "NULL"
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case pgtype.Numeric:
		return numericText(x)
	case []byte:
		return `\x` + hex.EncodeToString(x)
	case uuid.UUID:
		return x.String()
	}
	return fmt.Sprint(v.v)
}

// MarshalJSON encodes the active variant as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch x := v.v.(type) {
	case nil:
		return []byte("null"), nil
	case pgtype.Numeric:
		return x.MarshalJSON()
	case uuid.UUID:
		return json.Marshal(x.String())
	}
	return json.Marshal(v.v)
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch x := v.v.(type) {
	case []byte:
		return bytes.Equal(x, o.v.([]byte))
	case time.Time:
		return x.Equal(o.v.(time.Time))
	case pgtype.Numeric:
		return numericText(x) == numericText(o.v.(pgtype.Numeric))
	}
	return v.v == o.v
}

func numericText(n pgtype.Numeric) string {
	dv, err := n.Value()
	if err != nil {
		return "NaN"
	}
	if s, ok := dv.(string); ok {
		return s
	}
	return "NULL"
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
