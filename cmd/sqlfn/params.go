package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joacominatel/sqlfn"
	"github.com/joacominatel/sqlfn/value"
)

// parseParams reads --param flags written as name=value or
// name:type=value. Without a type the value binds as text.
func parseParams(flags []string) ([]sqlfn.Param, error) {
	params := make([]sqlfn.Param, 0, len(flags))
	for _, f := range flags {
		p, err := parseParam(f)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func parseParam(flag string) (sqlfn.Param, error) {
	key, raw, ok := strings.Cut(flag, "=")
	if !ok {
		return sqlfn.Param{}, fmt.Errorf("param %q: expected name=value", flag)
	}
	name, kind, _ := strings.Cut(key, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return sqlfn.Param{}, fmt.Errorf("param %q: empty name", flag)
	}

	v, err := parseTyped(strings.ToLower(kind), raw)
	if err != nil {
		return sqlfn.Param{}, fmt.Errorf("param %s: %w", name, err)
	}
	return sqlfn.Value(name, v), nil
}

func parseTyped(kind, raw string) (value.Value, error) {
	switch kind {
	case "", "text", "string":
		return value.String(raw), nil
	case "null":
		return value.Null(), nil
	case "tinyint":
		n, err := strconv.ParseUint(raw, 10, 8)
		return value.TinyInt(uint8(n)), err
	case "smallint", "int2":
		n, err := strconv.ParseInt(raw, 10, 16)
		return value.SmallInt(int16(n)), err
	case "int", "integer", "int4":
		n, err := strconv.ParseInt(raw, 10, 32)
		return value.Int(int32(n)), err
	case "bigint", "int8":
		n, err := strconv.ParseInt(raw, 10, 64)
		return value.BigInt(n), err
	case "float", "double", "float8":
		f, err := strconv.ParseFloat(raw, 64)
		return value.Float(f), err
	case "decimal", "numeric":
		return value.ParseDecimal(raw)
	case "bool", "boolean":
		b, err := strconv.ParseBool(raw)
		return value.Bool(b), err
	case "uuid":
		u, err := uuid.Parse(raw)
		return value.UUID(u), err
	case "timestamp":
		t, err := parseTime(raw)
		return value.DateTime(t), err
	case "timestamptz":
		t, err := parseTime(raw)
		return value.DateTimeOffset(t), err
	case "bytea":
		b, err := hex.DecodeString(strings.TrimPrefix(raw, `\x`))
		return value.Binary(b), err
	}
	return value.Value{}, fmt.Errorf("unknown type %q", kind)
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", raw)
}
