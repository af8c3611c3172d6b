// Package errors defines the error taxonomy used by the Redstone dispatch core.
//
// Every failure raised during request processing is one of the types below, or
// is wrapped into one at the chain-executor boundary. Types that carry an HTTP
// status expose it through StatusCode so the error router can pick a handler
// without inspecting concrete types.
package errors

import (
	"fmt"
	"net/http"
)

// StatusCoder is implemented by errors that carry an explicit HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Abort is an expected, intentional short-circuit of request processing.
// Handlers and interceptors produce it to answer with a specific status and
// message. If no custom error handler is registered for its status, the
// message is written verbatim as plain text.
type Abort struct {
	Code    int
	Message string
}

// NewAbort creates an Abort for the given status code. When no message is
// given, the standard status text is used.
func NewAbort(code int, message ...string) *Abort {
	a := &Abort{Code: code}
	if len(message) > 0 {
		a.Message = message[0]
	} else {
		a.Message = http.StatusText(code)
	}
	return a
}

// Error implements the error interface.
func (a *Abort) Error() string {
	return fmt.Sprintf("abort %d: %s", a.Code, a.Message)
}

// StatusCode returns the HTTP status carried by the abort.
func (a *Abort) StatusCode() int {
	return a.Code
}

// Common aborts.
func BadRequest(message ...string) *Abort   { return NewAbort(http.StatusBadRequest, message...) }
func Unauthorized(message ...string) *Abort { return NewAbort(http.StatusUnauthorized, message...) }
func Forbidden(message ...string) *Abort    { return NewAbort(http.StatusForbidden, message...) }
func NotFound(message ...string) *Abort     { return NewAbort(http.StatusNotFound, message...) }
func Conflict(message ...string) *Abort     { return NewAbort(http.StatusConflict, message...) }
func TooManyRequests(message ...string) *Abort {
	return NewAbort(http.StatusTooManyRequests, message...)
}
func Internal(message ...string) *Abort {
	return NewAbort(http.StatusInternalServerError, message...)
}

// ResolutionError reports that a declared handler parameter could not be
// resolved by its provider. It identifies both the handler and the parameter
// so the failure can be traced back to the declaration.
type ResolutionError struct {
	Handler string
	Param   string
	Cause   error
	// Status is the HTTP status used when routing the failure. Providers may
	// override it; the zero value maps to 400.
	Status int
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve parameter %q of handler %q: %v", e.Param, e.Handler, e.Cause)
}

// Unwrap returns the provider failure.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the failure, 400 by default.
func (e *ResolutionError) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusBadRequest
}

// StallError reports that a chain element returned without calling Next or
// Interrupt, leaving the chain unable to advance. It is a diagnostic
// condition, not expected in normal operation.
type StallError struct {
	Element string
}

// Error implements the error interface.
func (e *StallError) Error() string {
	return fmt.Sprintf("chain did not advance: element %q returned without signaling completion", e.Element)
}

// StatusCode returns 500.
func (e *StallError) StatusCode() int {
	return http.StatusInternalServerError
}

// SerializationError reports that the response writer could not convert the
// final response value to bytes.
type SerializationError struct {
	Cause error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize response value: %v", e.Cause)
}

// Unwrap returns the underlying encoding failure.
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// StatusCode returns 500.
func (e *SerializationError) StatusCode() int {
	return http.StatusInternalServerError
}

// ConfigError reports an invalid registration. It is surfaced at setup time;
// serving must not start while one is pending.
type ConfigError struct {
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Message
}

// Configf creates a ConfigError with a formatted message.
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
