package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/astowny/monteur-ia/internal/gate"
	"github.com/astowny/monteur-ia/internal/hooks"
	"github.com/astowny/monteur-ia/internal/jobs"
	"github.com/astowny/monteur-ia/internal/media"
	"github.com/astowny/monteur-ia/internal/platform"
	"github.com/astowny/monteur-ia/internal/transcription"
	"github.com/astowny/monteur-ia/pkg/log"
)

type ErrorType int

const (
	ErrValidation ErrorType = iota
	ErrNotFound
	ErrUnauthorized
	ErrRateLimited
	ErrConflict
	ErrDependency
	ErrUnknown
)

// AppError is the error every service operation returns. Its Code is the
// stable name exposed at the boundary.
type AppError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *AppError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithContext(key string, value any) *AppError {
	e.Context[key] = value
	return e
}

// Code is the stable error name returned to callers.
func (e *AppError) Code() string {
	return e.Type.Code()
}

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrNotFound:
		return "NotFound"
	case ErrUnauthorized:
		return "Unauthorized"
	case ErrRateLimited:
		return "RateLimited"
	case ErrConflict:
		return "Conflict"
	case ErrDependency:
		return "Dependency"
	default:
		return "Unknown"
	}
}

func (t ErrorType) Code() string {
	switch t {
	case ErrValidation:
		return "validation_error"
	case ErrNotFound:
		return "job_not_found"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrRateLimited:
		return "rate_limit_exceeded"
	case ErrConflict:
		return "job_conflict"
	case ErrDependency:
		return "dependency_failed"
	default:
		return "internal_server_error"
	}
}

func (t ErrorType) HTTPStatus() int {
	switch t {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrConflict:
		return http.StatusConflict
	case ErrDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Classify converts err into an AppError, mapping the sentinel errors of
// the lower packages onto the taxonomy. Unrecognised errors are ErrUnknown.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gate.ErrUnauthorized):
		return WrapError(err, ErrUnauthorized, "unauthorized")
	case errors.Is(err, gate.ErrRateLimited):
		return WrapError(err, ErrRateLimited, "rate limit exceeded")
	case errors.Is(err, jobs.ErrNotFound):
		return WrapError(err, ErrNotFound, "job not found")
	case errors.Is(err, jobs.ErrNotQueued):
		return WrapError(err, ErrConflict, "job is not queued")
	case errors.Is(err, jobs.ErrUnsupportedOperation),
		errors.Is(err, hooks.ErrUnsupportedStyle),
		errors.Is(err, media.ErrUnsupportedRatio),
		errors.Is(err, media.ErrInputNotFound),
		errors.Is(err, platform.ErrUnsupportedPlatform),
		errors.Is(err, transcription.ErrMediaNotFound):
		return WrapError(err, ErrValidation, err.Error())
	case errors.Is(err, media.ErrBinaryMissing):
		return WrapError(err, ErrDependency, "media binary missing")
	default:
		return WrapError(err, ErrUnknown, "unexpected error")
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *AppError {
	return NewErrorWithCause(errorType, message, err)
}

// Handle logs err with its classification and reports whether it was a
// known error type.
func Handle(err error) bool {
	appErr := Classify(err)
	if appErr == nil {
		return true
	}
	if appErr.Type == ErrUnknown {
		log.Error("Unknown Error: %v", err)
		return false
	}
	log.Warn("Error Detail: %v", appErr)
	return true
}

func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(ErrUnknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()

	return fn()
}
