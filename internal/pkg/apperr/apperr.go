// Package apperr defines the error taxonomy shared by services, calculators
// and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindExternalService Kind = "external_service_error"
	KindAuthentication  Kind = "unauthorized"
	KindQuotaExceeded   Kind = "quota_exceeded"
	KindForbidden       Kind = "forbidden"
)

// Sentinel errors for errors.Is matching.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrExternalService = errors.New("external service failed")
	ErrAuthentication  = errors.New("authentication failed")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrForbidden       = errors.New("forbidden")
)

var sentinels = map[Kind]error{
	KindValidation:      ErrValidation,
	KindNotFound:        ErrNotFound,
	KindInvalidState:    ErrInvalidState,
	KindExternalService: ErrExternalService,
	KindAuthentication:  ErrAuthentication,
	KindQuotaExceeded:   ErrQuotaExceeded,
	KindForbidden:       ErrForbidden,
}

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if s, ok := sentinels[e.Kind]; ok {
			msg = s.Error()
		} else {
			msg = string(e.Kind)
		}
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
	}
	return false
}

// Validation reports an invalid input field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound reports a missing entity.
func NotFound(op, what string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: what + " not found"}
}

// InvalidState reports an operation that does not apply to the current state.
func InvalidState(op, message string) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Message: message}
}

// External wraps a failure returned by a third-party service.
func External(op string, err error) *Error {
	return &Error{Kind: KindExternalService, Op: op, Err: err}
}

// Authentication reports a failed signature, token or credential check.
func Authentication(op, message string) *Error {
	return &Error{Kind: KindAuthentication, Op: op, Message: message}
}

// QuotaExceeded reports a free-tier limit.
func QuotaExceeded(message string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: message}
}

// Forbidden reports a premium-only feature requested without entitlement.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// FieldOf returns the offending field of a validation error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindExternalService:
		return http.StatusBadGateway
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindQuotaExceeded, KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns the client-facing message of err without the operation
// prefix or the wrapped cause.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if s, ok := sentinels[e.Kind]; ok {
		return s.Error()
	}
	return string(e.Kind)
}
