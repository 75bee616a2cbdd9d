package value

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is wrapped by every MismatchError.
	ErrTypeMismatch = errors.New("value: type mismatch")

	// ErrUnsupportedType is wrapped by every UnsupportedTypeError.
	ErrUnsupportedType = errors.New("value: unsupported native type")

	// ErrColumnNotFound is returned by strict lookups on a missing column.
	ErrColumnNotFound = errors.New("value: column not found")

	// ErrNull is returned by strict lookups when the column holds NULL.
	ErrNull = errors.New("value: column is null")
)

// MismatchError reports an accessor asked for one kind but found another.
type MismatchError struct {
	Expected Kind
	Actual   Kind
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("value: expected %s, got %s", e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// UnsupportedTypeError reports a native value with no matching variant.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("value: unsupported native type %s", e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error {
	return ErrUnsupportedType
}

// ColumnError attaches a column name to a lookup or conversion failure.
type ColumnError struct {
	Column string
	Cause  error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %v", e.Column, e.Cause)
}

func (e *ColumnError) Unwrap() error {
	return e.Cause
}
