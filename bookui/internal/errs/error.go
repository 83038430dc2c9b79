package errs

import (
	"errors"
)

var (
	ErrRequestFailed   = errors.New("request failed")
	ErrIncompleteDraft = errors.New("please fill in all fields")
	ErrUnknownField    = errors.New("unknown field")
	ErrNotFound        = errors.New("book not found")
	ErrNotEditing      = errors.New("no book is being edited")
)

// RequestError is a failed call to the books API. Every cause is the same kind to callers.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return ErrRequestFailed.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}
