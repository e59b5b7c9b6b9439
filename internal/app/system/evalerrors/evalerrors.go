// Package evalerrors defines the error kinds surfaced by the evaluation core.
//
// Kinds:
//   - Config: a required global setting is missing or invalid. Raised
//     before any aggregation runs.
//   - Integrity: stored data violates an invariant (scaled item without a
//     scale, answer index out of range). Never coerced to a default.
//   - NotFound: a referenced entity does not exist.
//
// Callers match kinds with errors.Is against the exported sentinels.
package evalerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindIntegrity
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindIntegrity:
		return "data integrity"
	case KindNotFound:
		return "not found"
	}
	return "unknown"
}

// Sentinels for errors.Is.
var (
	ErrConfig    = errors.New("configuration error")
	ErrIntegrity = errors.New("data integrity error")
	ErrNotFound  = errors.New("not found")
)

// Error is a classified core error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrIntegrity:
		return e.Kind == KindIntegrity
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// Config builds a configuration error.
func Config(op, format string, args ...any) error {
	return &Error{Kind: KindConfig, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Integrity builds a data-integrity error.
func Integrity(op, format string, args ...any) error {
	return &Error{Kind: KindIntegrity, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound wraps err (may be nil) as a not-found error.
func NotFound(op string, err error, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
