package middlewares

import (
	"errors"
	"fmt"
)

// PanicError is a panic recovered while serving Method Path.
type PanicError struct {
	Value  any
	Method string
	Path   string
	Stack  []byte
}

func (e *PanicError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("panic: %v", e.Value)
	}
	return fmt.Sprintf("panic in %s %s: %v", e.Method, e.Path, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// AsPanicError reports whether err wraps a *PanicError.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
