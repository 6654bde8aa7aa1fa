package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a pipeline error.
type ErrorKind string

const (
	KindInvalidConfig ErrorKind = "invalid_config"
	KindValidation    ErrorKind = "validation"
	KindEmbedding     ErrorKind = "embedding"
	KindGeneration    ErrorKind = "generation"
	KindStore         ErrorKind = "store"
	KindParse         ErrorKind = "parse"
)

// Error is a categorised error with optional context for the caller.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key/value to the error and returns it.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

var (
	ErrInvalidConfig = NewError(KindInvalidConfig, "invalid configuration", nil)
	ErrValidation    = NewError(KindValidation, "invalid request", nil)
	ErrEmbedding     = NewError(KindEmbedding, "embedding failed", nil)
	ErrGeneration    = NewError(KindGeneration, "generation failed", nil)
	ErrStore         = NewError(KindStore, "vector store failed", nil)
	ErrParse         = NewError(KindParse, "parse failed", nil)
)

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
