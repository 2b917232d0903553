package tglog

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrInvalidConfiguration is returned when a client setting is rejected.
// The client keeps its previous configuration.
var ErrInvalidConfiguration = errors.New("tglog: invalid configuration")

// Coder is implemented by errors that carry a numeric code.
type Coder interface {
	ErrorCode() int
}

// CodeError attaches a numeric code to an error.
type CodeError struct {
	Code int
	Err  error
}

func (e *CodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *CodeError) Unwrap() error  { return e.Err }
func (e *CodeError) ErrorCode() int { return e.Code }

// NewError returns an error with message msg and the given code,
// recording the stack at the point of the call.
func NewError(msg string, code int) error {
	return pkgerrors.WithStack(&CodeError{Code: code, Err: errors.New(msg)})
}

// WithCode attaches code to err and records the current stack.
// It returns nil if err is nil.
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return pkgerrors.WithStack(&CodeError{Code: code, Err: err})
}
