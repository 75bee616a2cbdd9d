package app

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by calls made before Connect.
var ErrNotConnected = errors.New("not connected")

// ErrConnection represents a failure to open or inspect the session.
type ErrConnection struct {
	DSN   string
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrQuery represents a failed statement typed in the console.
type ErrQuery struct {
	Query string
	Cause error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// ErrIntrospection represents a failed catalog lookup.
type ErrIntrospection struct {
	What  string
	Cause error
}

func (e *ErrIntrospection) Error() string {
	return fmt.Sprintf("load %s: %v", e.What, e.Cause)
}

func (e *ErrIntrospection) Unwrap() error {
	return e.Cause
}
