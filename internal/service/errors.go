package service

import "errors"

// Kind classifies a failure so transports can map it to a status.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRateLimited  Kind = "rate_limited"
	KindUpstream     Kind = "upstream_failure"
)

// Error is a client-facing failure. Anything else returned by a service is
// an infrastructure error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict"}
	ErrRateLimited  = &Error{Kind: KindRateLimited, Message: "rate limited"}
	ErrUpstream     = &Error{Kind: KindUpstream, Message: "upstream failure"}
)

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func validationError(msg string) error {
	return newError(KindValidation, msg, nil)
}

func notFound(msg string) error {
	return newError(KindNotFound, msg, nil)
}

func conflict(msg string) error {
	return newError(KindConflict, msg, nil)
}

// KindOf returns the kind of err, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the client-facing message of a service error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
