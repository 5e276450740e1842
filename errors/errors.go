package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Validation errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInvalid    ErrorType = "invalid"

	ErrorTypeNotFound ErrorType = "not_found"

	// Business errors
	ErrorTypeBusiness  ErrorType = "business"
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// System errors
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeExternal ErrorType = "external"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	Stack      []string       `json:"-"`
	HTTPStatus int            `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.InnerError != nil {
		return msg + ": " + e.InnerError.Error()
	}
	return msg
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// clone returns a shallow copy so sentinel templates are never mutated.
func (e *AppError) clone() *AppError {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// WithMessage returns a copy carrying msg.
func (e *AppError) WithMessage(msg string) *AppError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithCode returns a copy carrying code.
func (e *AppError) WithCode(code string) *AppError {
	c := e.clone()
	c.Code = code
	return c
}

// WithDetail returns a copy with one more detail entry.
func (e *AppError) WithDetail(key string, value any) *AppError {
	c := e.clone()
	if c.Details == nil {
		c.Details = make(map[string]any)
	}
	c.Details[key] = value
	return c
}

// WithHTTPStatus returns a copy with the HTTP status set.
func (e *AppError) WithHTTPStatus(status int) *AppError {
	c := e.clone()
	c.HTTPStatus = status
	return c
}

// WithInnerError returns a copy wrapping err.
func (e *AppError) WithInnerError(err error) *AppError {
	c := e.clone()
	c.InnerError = err
	return c
}

// WithStack captures the call stack
func (e *AppError) WithStack() *AppError {
	c := e.clone()
	c.Stack = captureStack(3)
	return c
}

// Is matches by code when both errors carry one, otherwise by type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Code != "" && t.Code != "" {
		return e.Code == t.Code
	}
	return e.Type == t.Type
}

// Status returns the HTTP status, defaulting to 500.
func (e *AppError) Status() int {
	if e.HTTPStatus > 0 {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// Define builds a sentinel error with a stable code.
func Define(errType ErrorType, code, message string, status int) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Message:    err.Error(),
		InnerError: err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	base := FromError(err)
	return &AppError{
		Type:       base.Type,
		Code:       base.Code,
		Message:    message,
		InnerError: err,
		HTTPStatus: base.HTTPStatus,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message).WithHTTPStatus(http.StatusBadRequest)
}

func NewInvalid(field string, value any, reason string) *AppError {
	return New(ErrorTypeInvalid, fmt.Sprintf("invalid value for %s: %v", field, value)).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason).
		WithHTTPStatus(http.StatusBadRequest)
}

func NewNotFound(resource string, id any) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id).
		WithHTTPStatus(http.StatusNotFound)
}

func NewRateLimit(message string) *AppError {
	return New(ErrorTypeRateLimit, message).WithHTTPStatus(http.StatusTooManyRequests)
}

func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message).WithHTTPStatus(http.StatusInternalServerError)
}

// ErrorRecover recovers from panics and converts them to errors.
// Use as: defer func() { err = errors.ErrorRecover(recover(), err) }()
func ErrorRecover(r any, current error) error {
	if r == nil {
		return current
	}
	var err error
	switch v := r.(type) {
	case error:
		err = v
	case string:
		err = errors.New(v)
	default:
		err = fmt.Errorf("%v", v)
	}
	return Wrap(err, "panic recovered").WithStack()
}

// Format renders an error on one line for logs.
func Format(err error) string {
	if err == nil {
		return ""
	}

	appErr := FromError(err)

	parts := []string{fmt.Sprintf("[%s] %s", appErr.Type, appErr.Message)}
	if appErr.Code != "" {
		parts = append(parts, "code="+appErr.Code)
	}
	for k, v := range appErr.Details {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	if appErr.InnerError != nil {
		parts = append(parts, "caused_by: "+appErr.InnerError.Error())
	}

	return strings.Join(parts, " | ")
}

// captureStack captures the call stack
func captureStack(skip int) []string {
	var stack []string
	for i := skip; i < 10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		funcName := fn.Name()
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}

		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return stack
}
