package utils

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that map it onto user messages or status codes.
type Kind string

const (
	KindInvalid          Kind = "invalid"
	KindNotConfigured    Kind = "not_configured"
	KindDuplicate        Kind = "duplicate"
	KindPermissionDenied Kind = "permission_denied"
	KindSubmitFailed     Kind = "submit_failed"
	KindNotFound         Kind = "not_found"
	KindClosed           Kind = "closed"
)

type CustomError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CustomError) Unwrap() error { return e.Err }

// Is matches any *CustomError of the same kind, so kinded sentinels work with errors.Is.
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string) error {
	return &CustomError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap attaches a kind and message to err.
func Wrap(kind Kind, message string, err error) error {
	return &CustomError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *CustomError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
