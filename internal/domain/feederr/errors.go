package feederr

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure a feed can observe maps to exactly one of them.
var (
	ErrNetwork   = errors.New("network error")
	ErrAuth      = errors.New("unauthenticated")
	ErrDataShape = errors.New("unexpected data shape")
)

// Error carries the kind, the operation that failed and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Network wraps a transport-level failure or malformed JSON.
func Network(op string, err error) error {
	return &Error{Kind: ErrNetwork, Op: op, Err: err}
}

// Auth reports an HTTP 401 or an explicit invalid-token answer.
func Auth(op string, err error) error {
	return &Error{Kind: ErrAuth, Op: op, Err: err}
}

// DataShape reports a response that parsed but lacks required fields.
func DataShape(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrDataShape, Op: op, Err: fmt.Errorf(format, args...)}
}

// IsAuth reports whether err means the session is no longer accepted.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// IsDataShape reports whether err means "no data this tick".
func IsDataShape(err error) bool { return errors.Is(err, ErrDataShape) }

// Kind returns a short label for metrics and logs: ok, auth, datashape or network.
// Errors outside the taxonomy (including context cancellation) count as network.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrDataShape):
		return "datashape"
	default:
		return "network"
	}
}
