package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrInvalidSubmission  = NewError("INVALID_SUBMISSION", "invalid submission", http.StatusBadRequest)
	ErrInternal           = NewError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrTimeout            = NewError("TIMEOUT", "operation timed out", http.StatusRequestTimeout)
	ErrRateLimited        = NewError("RATE_LIMIT_EXCEEDED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrServiceUnavailable = NewError("SERVICE_UNAVAILABLE", "service unavailable", http.StatusServiceUnavailable)
	ErrNotConfigured      = NewError("NOT_CONFIGURED", "not configured", http.StatusServiceUnavailable)
)

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
	fatal   bool
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so that errors derived via With* still match their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) IsFatal() bool {
	if e.fatal {
		return true
	}
	if e.Cause != nil {
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return fatalErr.IsFatal()
		}
	}
	return false
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithMessage(message string) *Error {
	err := *e
	err.Message = message
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func (e *Error) AsFatal() *Error {
	err := *e
	err.fatal = true
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func IsValidation(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrValidation.Code || appErr.Code == ErrInvalidSubmission.Code
	}
	return false
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// ToErrorResponse renders err as the public {"error": "..."} body. Causes and
// details never leave the process; server errors always use the generic text.
func ToErrorResponse(err error) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError && appErr.Code == ErrInternal.Code {
		message = ErrInternal.Message
	}

	return map[string]interface{}{
		"error": message,
	}
}
