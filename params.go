package sqlfn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joacominatel/sqlfn/value"
)

// Param is a named statement parameter. The name may be written with or
// without the leading "@" used by the placeholder in the statement text.
type Param struct {
	Name  string
	Value value.Value
}

func (p Param) key() string {
	return strings.TrimPrefix(p.Name, "@")
}

// Value binds an already built value.Value.
func Value(name string, v value.Value) Param { return Param{Name: name, Value: v} }

// Typed constructors, one per variant.

func TinyInt(name string, v uint8) Param { return Value(name, value.TinyInt(v)) }
func SmallInt(name string, v int16) Param { return Value(name, value.SmallInt(v)) }
func Int(name string, v int32) Param { return Value(name, value.Int(v)) }
func BigInt(name string, v int64) Param { return Value(name, value.BigInt(v)) }
func String(name string, v string) Param { return Value(name, value.String(v)) }
func DateTime(name string, v time.Time) Param { return Value(name, value.DateTime(v)) }
func DateTimeOffset(name string, v time.Time) Param { return Value(name, value.DateTimeOffset(v)) }
func Bool(name string, v bool) Param { return Value(name, value.Bool(v)) }
func Float(name string, v float64) Param { return Value(name, value.Float(v)) }
func Decimal(name string, v pgtype.Numeric) Param { return Value(name, value.Decimal(v)) }
func Binary(name string, v []byte) Param { return Value(name, value.Binary(v)) }
func UUID(name string, v uuid.UUID) Param { return Value(name, value.UUID(v)) }
func Null(name string) Param { return Value(name, value.Null()) }

// orNull binds *v, or NULL when v is nil.
func orNull[T any](name string, v *T, build func(T) value.Value) Param {
	if v == nil {
		return Null(name)
	}
	return Value(name, build(*v))
}

// The OrNull constructors map a nil pointer to a database NULL.

func TinyIntOrNull(name string, v *uint8) Param { return orNull(name, v, value.TinyInt) }
func SmallIntOrNull(name string, v *int16) Param { return orNull(name, v, value.SmallInt) }
func IntOrNull(name string, v *int32) Param { return orNull(name, v, value.Int) }
func BigIntOrNull(name string, v *int64) Param { return orNull(name, v, value.BigInt) }
func StringOrNull(name string, v *string) Param { return orNull(name, v, value.String) }
func DateTimeOrNull(name string, v *time.Time) Param { return orNull(name, v, value.DateTime) }
func BoolOrNull(name string, v *bool) Param { return orNull(name, v, value.Bool) }
func FloatOrNull(name string, v *float64) Param { return orNull(name, v, value.Float) }
func UUIDOrNull(name string, v *uuid.UUID) Param { return orNull(name, v, value.UUID) }

func DateTimeOffsetOrNull(name string, v *time.Time) Param {
	return orNull(name, v, value.DateTimeOffset)
}

func DecimalOrNull(name string, v *pgtype.Numeric) Param {
	return orNull(name, v, value.Decimal)
}

// BinaryOrNull treats a nil slice as NULL.
func BinaryOrNull(name string, v []byte) Param {
	if v == nil {
		return Null(name)
	}
	return Binary(name, v)
}

// paramRef marks which parameter a rewritten placeholder refers to.
type paramRef int

// bind rewrites @name placeholders to positional ones. Every placeholder
// must have a parameter; parameters the text never names are dropped.
func bind(text string, params []Param) (string, []any, error) {
	if len(params) == 0 {
		return text, nil, nil
	}
	named := make(pgx.NamedArgs, len(params))
	for i, p := range params {
		named[p.key()] = paramRef(i)
	}
	sql, refs, err := named.RewriteQuery(context.Background(), nil, text, nil)
	if err != nil {
		return "", nil, &BindError{Cause: err}
	}
	args := make([]any, len(refs))
	for i, r := range refs {
		ref, ok := r.(paramRef)
		if !ok {
			return "", nil, &BindError{Cause: fmt.Errorf("placeholder $%d has no parameter", i+1)}
		}
		args[i] = params[ref].Value.Native()
	}
	return sql, args, nil
}
