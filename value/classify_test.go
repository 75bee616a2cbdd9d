package value

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRoundTrip(t *testing.T) {
	ts := time.Date(2023, 11, 2, 15, 4, 5, 600, time.UTC)
	id := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	var num pgtype.Numeric
	require.NoError(t, num.Scan("1234.5678"))

	tests := []struct {
		name   string
		native any
		kind   Kind
		back   func(Value) (any, error)
	}{
		{"uint8", uint8(200), KindTinyInt, func(v Value) (any, error) { return ToTinyInt(v) }},
		{"int16", int16(1200), KindSmallInt, func(v Value) (any, error) { return ToSmallInt(v) }},
		{"int32", int32(5), KindInt, func(v Value) (any, error) { return ToInt(v) }},
		{"int64", int64(1 << 50), KindBigInt, func(v Value) (any, error) { return ToBigInt(v) }},
		{"string", "jane", KindString, func(v Value) (any, error) { return ToString(v) }},
		{"time", ts, KindDateTime, func(v Value) (any, error) { return ToDateTime(v) }},
		{"bool", true, KindBool, func(v Value) (any, error) { return ToBool(v) }},
		{"float64", 2.25, KindFloat, func(v Value) (any, error) { return ToFloat(v) }},
		{"numeric", num, KindDecimal, func(v Value) (any, error) { return ToDecimal(v) }},
		{"bytes", []byte{1, 2, 3}, KindBinary, func(v Value) (any, error) { return ToBinary(v) }},
		{"uuid", id, KindUUID, func(v Value) (any, error) { return ToUUID(v) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Classify(tt.native)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())

			got, err := tt.back(v)
			require.NoError(t, err)
			assert.Equal(t, tt.native, got)
		})
	}
}

func TestClassifyWidening(t *testing.T) {
	tests := []struct {
		native any
		want   Value
	}{
		{int(9), BigInt(9)},
		{int8(-7), SmallInt(-7)},
		{uint16(60000), Int(60000)},
		{uint32(4000000000), BigInt(4000000000)},
		{float32(0.5), Float(0.5)},
		{[16]byte{1}, UUID(uuid.UUID{1})},
	}
	for _, tt := range tests {
		v, err := Classify(tt.native)
		require.NoError(t, err, "%T", tt.native)
		assert.Equal(t, tt.want, v, "%T", tt.native)
	}
}

func TestClassifyNulls(t *testing.T) {
	natives := []any{
		nil,
		[]byte(nil),
		pgtype.Int4{},
		pgtype.Text{},
		pgtype.Timestamptz{},
		pgtype.UUID{},
		pgtype.Numeric{},
	}
	for _, n := range natives {
		v, err := Classify(n)
		require.NoError(t, err, "%T", n)
		assert.True(t, v.IsNull(), "%T", n)
	}
}

func TestClassifyPgtypeWrappers(t *testing.T) {
	v, err := Classify(pgtype.Int8{Int64: 42, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, BigInt(42), v)

	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	v, err = Classify(pgtype.Timestamptz{Time: ts, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, KindDateTimeOffset, v.Kind())
}

func TestClassifyUnsupported(t *testing.T) {
	_, err := Classify(map[string]any{"a": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	var ue *UnsupportedTypeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "map[string]interface {}", ue.Type)

	_, err = Classify(uint64(1))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestClassifyColumn(t *testing.T) {
	ts := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

	v, err := ClassifyColumn(pgtype.TimestamptzOID, ts)
	require.NoError(t, err)
	assert.Equal(t, KindDateTimeOffset, v.Kind())

	v, err = ClassifyColumn(pgtype.TimestampOID, ts)
	require.NoError(t, err)
	assert.Equal(t, KindDateTime, v.Kind())

	v, err = ClassifyColumn(pgtype.Float4OID, float32(1.5))
	require.NoError(t, err)
	assert.Equal(t, Float(1.5), v)

	v, err = ClassifyColumn(pgtype.UUIDOID, [16]byte{2})
	require.NoError(t, err)
	assert.Equal(t, KindUUID, v.Kind())

	v, err = ClassifyColumn(pgtype.QCharOID, int32('a'))
	require.NoError(t, err)
	assert.Equal(t, TinyInt('a'), v)

	v, err = ClassifyColumn(pgtype.QCharOID, int32(200))
	require.NoError(t, err, "\"char\" spans the whole byte")
	assert.Equal(t, TinyInt(200), v)
	b, err := ToTinyInt(v)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), b)

	_, err = ClassifyColumn(pgtype.QCharOID, int32(300))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	v, err = ClassifyColumn(pgtype.Int4OID, nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = ClassifyColumn(pgtype.Int4OID, "five")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// unmapped OIDs fall back to runtime inspection
	v, err = ClassifyColumn(3802, "{}")
	require.NoError(t, err)
	assert.Equal(t, String("{}"), v)
}

func TestKindForOID(t *testing.T) {
	k, ok := KindForOID(pgtype.NumericOID)
	assert.True(t, ok)
	assert.Equal(t, KindDecimal, k)

	_, ok = KindForOID(3802)
	assert.False(t, ok)

	assert.Equal(t, "numeric", TypeName(pgtype.NumericOID))
	assert.Equal(t, "oid:3802", TypeName(3802))
}
