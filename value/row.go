package value

import (
	"bytes"
	"encoding/json"
)

// Field is one named cell of a Row.
type Field struct {
	Name  string
	Value Value
}

// Row is an ordered list of fields. Duplicate names are kept; lookups by
// name return the first match and are case-sensitive.
type Row []Field

// Table is a fully materialized result set.
type Table []Row

// Column describes one result column as reported by the driver.
type Column struct {
	Name     string
	Kind     Kind
	TypeOID  uint32
	TypeName string
}

// Get returns the first field named name.
func (r Row) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// At returns the field at position i.
func (r Row) At(i int) (Field, bool) {
	if i < 0 || i >= len(r) {
		return Field{}, false
	}
	return r[i], true
}

// Names returns the column names in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Values returns the cells in order.
func (r Row) Values() []Value {
	vals := make([]Value, len(r))
	for i, f := range r {
		vals[i] = f.Value
	}
	return vals
}

// Lookup is Get with a strict error: ErrColumnNotFound for a missing name.
func (r Row) Lookup(name string) (Value, error) {
	v, ok := r.Get(name)
	if !ok {
		return Value{}, &ColumnError{Column: name, Cause: ErrColumnNotFound}
	}
	return v, nil
}

// Columns returns the names of the first row, or nil for an empty table.
func (t Table) Columns() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0].Names()
}

// MarshalJSON encodes the row as an object whose keys keep column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
