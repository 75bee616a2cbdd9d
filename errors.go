package sqlfn

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuery is returned when neither a query nor a procedure was set.
	ErrNoQuery = errors.New("sqlfn: no query provided")

	// ErrNoConnection is returned when neither a connection string nor a
	// connection was set.
	ErrNoConnection = errors.New("sqlfn: no connection string or connection provided")

	// ErrEmptyResult is returned by single-row calls that read no row.
	ErrEmptyResult = errors.New("sqlfn: query returned no rows")
)

// ConnectError wraps a failure to open or close a connection.
type ConnectError struct {
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("sqlfn: connection error: %v", e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// QueryError wraps a driver failure with the operation and statement text.
// The driver error stays reachable through errors.Is and errors.As.
type QueryError struct {
	Op    Operation
	Query string
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("sqlfn: %s: %v", e.Op, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// BindError reports parameters that do not match the statement placeholders.
type BindError struct {
	Cause error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("sqlfn: bind parameters: %v", e.Cause)
}

func (e *BindError) Unwrap() error {
	return e.Cause
}
