package http

import (
	"fmt"
	"net/http"
)

// Error codes carried in AppError.Code.
const (
	CodeBadRequest     = "ERR_BAD_REQUEST"
	CodeInvalidPayload = "ERR_INVALID_PAYLOAD"
	CodeNotFound       = "ERR_NOT_FOUND"
	CodeRateLimited    = "ERR_RATE_LIMITED"
	CodeUnavailable    = "ERR_UNAVAILABLE"
	CodeInternal       = "ERR_INTERNAL"
)

// AppError is an error that knows its HTTP status and renders into the
// response envelope.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// WithParam attaches a detail rendered under params.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithField names the request field the error refers to.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// WithError wraps the cause; it is logged, never rendered.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestError(message string) *AppError {
	return newAppError(CodeBadRequest, http.StatusBadRequest, message)
}

// InvalidPayloadError is a 400 for request bodies that cannot be decoded.
func InvalidPayloadError(err error) *AppError {
	return newAppError(CodeInvalidPayload, http.StatusBadRequest, err.Error()).WithError(err)
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return newAppError(CodeNotFound, http.StatusNotFound, fmt.Sprintf(format, a...))
}

func TooManyRequestsError() *AppError {
	return newAppError(CodeRateLimited, http.StatusTooManyRequests, "rate limit exceeded")
}

func ServiceUnavailableError(message string) *AppError {
	return newAppError(CodeUnavailable, http.StatusServiceUnavailable, message)
}

func InternalError(message string) *AppError {
	return newAppError(CodeInternal, http.StatusInternalServerError, message)
}
