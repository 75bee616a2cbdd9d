package value

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type columnType struct {
	kind Kind
	name string
}

// columnTypes maps a PostgreSQL type OID to the variant its cells take.
// This is the only place a driver type is tied to a Kind.
var columnTypes = map[uint32]columnType{
	pgtype.QCharOID:       {KindTinyInt, "char"},
	pgtype.Int2OID:        {KindSmallInt, "int2"},
	pgtype.Int4OID:        {KindInt, "int4"},
	pgtype.OIDOID:         {KindBigInt, "oid"},
	pgtype.Int8OID:        {KindBigInt, "int8"},
	pgtype.TextOID:        {KindString, "text"},
	pgtype.VarcharOID:     {KindString, "varchar"},
	pgtype.BPCharOID:      {KindString, "bpchar"},
	pgtype.NameOID:        {KindString, "name"},
	pgtype.TimestampOID:   {KindDateTime, "timestamp"},
	pgtype.DateOID:        {KindDateTime, "date"},
	pgtype.TimestamptzOID: {KindDateTimeOffset, "timestamptz"},
	pgtype.BoolOID:        {KindBool, "bool"},
	pgtype.Float4OID:      {KindFloat, "float4"},
	pgtype.Float8OID:      {KindFloat, "float8"},
	pgtype.NumericOID:     {KindDecimal, "numeric"},
	pgtype.ByteaOID:       {KindBinary, "bytea"},
	pgtype.UUIDOID:        {KindUUID, "uuid"},
}

// KindForOID returns the variant a column of the given type OID produces.
func KindForOID(oid uint32) (Kind, bool) {
	ct, ok := columnTypes[oid]
	return ct.kind, ok
}

// TypeName returns a short name for a type OID, or "oid:<n>" when unmapped.
func TypeName(oid uint32) string {
	if ct, ok := columnTypes[oid]; ok {
		return ct.name
	}
	return fmt.Sprintf("oid:%d", oid)
}

// ClassifyColumn turns a driver cell into a Value using the column's type
// OID. Unmapped OIDs fall back to Classify.
func ClassifyColumn(oid uint32, native any) (Value, error) {
	ct, ok := columnTypes[oid]
	if !ok {
		return Classify(native)
	}
	v, err := Classify(native)
	if err != nil || v.IsNull() || v.kind == ct.kind {
		return v, err
	}
	return retag(ct.kind, v)
}

// retag moves a classified value onto the kind its column declares. Only
// representation-preserving moves are allowed.
func retag(kind Kind, v Value) (Value, error) {
	switch {
	case kind == KindDateTimeOffset && v.kind == KindDateTime:
		return DateTimeOffset(v.v.(time.Time)), nil
	case kind == KindDateTime && v.kind == KindDateTimeOffset:
		return DateTime(v.v.(time.Time)), nil
	case kind == KindBigInt && v.kind == KindInt:
		return BigInt(int64(v.v.(int32))), nil
	case kind == KindTinyInt && (v.kind == KindInt || v.kind == KindSmallInt):
		// "char" is one unsigned byte; pgx hands it over as a rune.
		var r int64
		if v.kind == KindInt {
			r = int64(v.v.(int32))
		} else {
			r = int64(v.v.(int16))
		}
		if r >= 0 && r <= math.MaxUint8 {
			return TinyInt(uint8(r)), nil
		}
	}
	return Value{}, &MismatchError{Expected: kind, Actual: v.kind}
}

// Classify inspects a native Go value and returns the matching variant.
// uint8, int16, int32, int64, string, time.Time, bool, float64,
// pgtype.Numeric, []byte and uuid.UUID map one to one and round-trip through
// the matching To* accessor. Other integer or platform types (int8, int,
// uint16, uint32, float32, [16]byte) and the pgtype nullable wrappers are
// widened to the closest variant. Anything else is an UnsupportedTypeError.
func Classify(native any) (Value, error) {
	switch x := native.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case uint8:
		return TinyInt(x), nil
	case int8:
		return SmallInt(int16(x)), nil
	case int16:
		return SmallInt(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return BigInt(x), nil
	case int:
		return BigInt(int64(x)), nil
	case uint16:
		return Int(int32(x)), nil
	case uint32:
		return BigInt(int64(x)), nil
	case string:
		return String(x), nil
	case time.Time:
		return DateTime(x), nil
	case bool:
		return Bool(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case pgtype.Numeric:
		return Decimal(x), nil
	case []byte:
		if x == nil {
			return Null(), nil
		}
		return Binary(x), nil
	case uuid.UUID:
		return UUID(x), nil
	case [16]byte:
		return UUID(uuid.UUID(x)), nil
	case pgtype.Int2:
		return nullable(x.Valid, func() Value { return SmallInt(x.Int16) }), nil
	case pgtype.Int4:
		return nullable(x.Valid, func() Value { return Int(x.Int32) }), nil
	case pgtype.Int8:
		return nullable(x.Valid, func() Value { return BigInt(x.Int64) }), nil
	case pgtype.Text:
		return nullable(x.Valid, func() Value { return String(x.String) }), nil
	case pgtype.Bool:
		return nullable(x.Valid, func() Value { return Bool(x.Bool) }), nil
	case pgtype.Float4:
		return nullable(x.Valid, func() Value { return Float(float64(x.Float32)) }), nil
	case pgtype.Float8:
		return nullable(x.Valid, func() Value { return Float(x.Float64) }), nil
	case pgtype.Timestamp:
		return nullable(x.Valid, func() Value { return DateTime(x.Time) }), nil
	case pgtype.Date:
		return nullable(x.Valid, func() Value { return DateTime(x.Time) }), nil
	case pgtype.Timestamptz:
		return nullable(x.Valid, func() Value { return DateTimeOffset(x.Time) }), nil
	case pgtype.UUID:
		return nullable(x.Valid, func() Value { return UUID(uuid.UUID(x.Bytes)) }), nil
	}
	return Value{}, &UnsupportedTypeError{Type: fmt.Sprintf("%T", native)}
}

func nullable(valid bool, build func() Value) Value {
	if !valid {
		return Null()
	}
	return build()
}
