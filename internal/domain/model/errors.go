package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by the core and its collaborators. These allow
// errors.Is from callers regardless of which layer produced the failure.
var (
	ErrParse           = errors.New("data format error")
	ErrDataUnavailable = errors.New("data unavailable")
	ErrExternalProcess = errors.New("external process error")

	// ErrInvalidInput marks caller-supplied data that failed to parse, as
	// opposed to a malformed pool file.
	ErrInvalidInput = errors.New("invalid input")
)

// Error carries an operation name and an error kind around an underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// Error renders "op: kind: cause".
func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind without a further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Parsef builds a parse error with a formatted reason.
func Parsef(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrParse, Err: fmt.Errorf(format, args...)}
}
