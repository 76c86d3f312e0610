package httperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business error. Handlers map kinds to HTTP statuses;
// callers use kinds to decide whether a retry makes sense.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindInvalidArgument   Kind = "invalid_argument"
	KindPastDate          Kind = "past_date"
	KindCutoff            Kind = "cutoff_violation"
	KindConflict          Kind = "slot_conflict"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindNotFound          Kind = "not_found"
	KindUnavailable       Kind = "unavailable"
	KindTimeout           Kind = "timeout"
)

type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]string

	cause error
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying store error for logging. It is never
// rendered to clients.
func (e *BusinessError) Unwrap() error {
	return e.cause
}

// With returns a copy of e carrying an extra detail.
func (e *BusinessError) With(key, value string) *BusinessError {
	cp := *e
	cp.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func New(kind Kind, code, message string) *BusinessError {
	return &BusinessError{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, cause error) *BusinessError {
	return &BusinessError{Kind: kind, Code: code, Message: message, cause: cause}
}

func IsBusiness(err error, code string) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind of the first BusinessError in err's chain, or ""
// when err carries none.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

func As(err error) (*BusinessError, bool) {
	var be *BusinessError
	ok := errors.As(err, &be)
	return be, ok
}
