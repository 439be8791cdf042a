package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindAuthentication
	ErrorKindAuthorization
	ErrorKindValidation
	ErrorKindStateConflict
	ErrorKindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindAuthentication:
		return "authentication"
	case ErrorKindAuthorization:
		return "authorization"
	case ErrorKindValidation:
		return "validation"
	case ErrorKindStateConflict:
		return "state_conflict"
	case ErrorKindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Error is the only error type workflows return. Message is safe to show to
// the caller; Err carries the internal cause and is never shown.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	MsgSignIn        = "please sign in"
	MsgNoPermission  = "you do not have permission"
	MsgGenericFailed = "an error occurred"
)

func NewAuthenticationError() *Error {
	return &Error{Kind: ErrorKindAuthentication, Message: MsgSignIn}
}

func NewAuthorizationError() *Error {
	return &Error{Kind: ErrorKindAuthorization, Message: MsgNoPermission}
}

func NewValidationError(field, message string) *Error {
	return &Error{Kind: ErrorKindValidation, Field: field, Message: message}
}

func NewConflictError(message string) *Error {
	return &Error{Kind: ErrorKindStateConflict, Message: message}
}

// NewNotFoundError does not distinguish a missing row from a row owned by
// another tenant.
func NewNotFoundError(entity string) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: entity + " not found"}
}

func NewUnknownError(err error) *Error {
	return &Error{Kind: ErrorKindUnknown, Message: MsgGenericFailed, Err: err}
}

// KindOf returns ErrorKindUnknown for nil and for errors that are not *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrorKindUnknown
}

// PublicMessage is the text a caller may see for err.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != ErrorKindUnknown {
		return de.Message
	}
	return MsgGenericFailed
}
