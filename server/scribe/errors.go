package scribe

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrWithStatusCode is an interface for errors that should set a specific
// HTTP status code.
type ErrWithStatusCode interface {
	error
	StatusCode() int
}

// ErrWithInternal is an interface for errors that include extra "internal"
// information that should be logged in server logs but not sent to clients.
type ErrWithInternal interface {
	error
	// Internal returns the error string that must only be logged internally,
	// not returned to the client.
	Internal() string
}

// ErrWithLogFields is an interface for errors that include additional
// logging fields for server logs.
type ErrWithLogFields interface {
	error
	// LogFields returns additional log fields in key, value pairs (as used
	// in go-kit log).
	LogFields() []interface{}
}

// NotFoundError is implemented by datastore errors for missing rows.
type NotFoundError interface {
	error
	IsNotFound() bool
}

// IsNotFound checks whether err wraps a not-found datastore error.
func IsNotFound(err error) bool {
	var nfe NotFoundError
	return errors.As(err, &nfe) && nfe.IsNotFound()
}

// ExistsError is implemented by datastore errors for duplicate rows.
type ExistsError interface {
	error
	IsExists() bool
}

// IsExists checks whether err wraps an already-exists datastore error.
func IsExists(err error) bool {
	var ee ExistsError
	return errors.As(err, &ee) && ee.IsExists()
}

// InvalidArgumentError is the error returned when invalid data is presented
// to a service method.
type InvalidArgumentError struct {
	Errors []InvalidArgument
}

// InvalidArgument is the details about a single invalid argument.
type InvalidArgument struct {
	name   string
	reason string
}

// NewInvalidArgumentError returns an InvalidArgumentError with at least one
// error.
func NewInvalidArgumentError(name, reason string) *InvalidArgumentError {
	var invalid InvalidArgumentError
	invalid.Append(name, reason)
	return &invalid
}

func (e *InvalidArgumentError) Append(name, reason string) {
	e.Errors = append(e.Errors, InvalidArgument{name: name, reason: reason})
}

func (e *InvalidArgumentError) HasErrors() bool {
	return len(e.Errors) != 0
}

// Error implements the error interface.
func (e InvalidArgumentError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s %s", e.Errors[0].name, e.Errors[0].reason)
	default:
		return fmt.Sprintf("validation failed: %s %s and %d other errors",
			e.Errors[0].name, e.Errors[0].reason, len(e.Errors)-1)
	}
}

// Invalid feeds the transport layer's validation response body.
func (e InvalidArgumentError) Invalid() []map[string]string {
	var invalid []map[string]string
	for _, i := range e.Errors {
		invalid = append(invalid, map[string]string{"name": i.name, "reason": i.reason})
	}
	return invalid
}

// BadRequestError is an error type that generates a 400 status code.
type BadRequestError struct {
	Message     string
	InternalErr error
}

func (e *BadRequestError) Error() string { return e.Message }

// BadRequestError marks the type for the transport's status mapping.
func (e *BadRequestError) BadRequestError() []map[string]string { return nil }

func (e BadRequestError) Internal() string {
	if e.InternalErr == nil {
		return ""
	}
	return e.InternalErr.Error()
}

// AuthRequiredError is returned when a request carries no valid session.
type AuthRequiredError struct {
	// internal is the reason that should only be logged internally
	internal string
}

func NewAuthRequiredError(internal string) *AuthRequiredError {
	return &AuthRequiredError{internal: internal}
}

func (e AuthRequiredError) Error() string    { return "Authentication required" }
func (e AuthRequiredError) Internal() string { return e.internal }
func (e AuthRequiredError) StatusCode() int  { return http.StatusUnauthorized }

// AuthHeaderRequiredError is returned when the Authorization header is
// missing entirely.
type AuthHeaderRequiredError struct {
	internal string
}

func NewAuthHeaderRequiredError(internal string) *AuthHeaderRequiredError {
	return &AuthHeaderRequiredError{internal: internal}
}

func (e AuthHeaderRequiredError) Error() string    { return "Authorization header required" }
func (e AuthHeaderRequiredError) Internal() string { return e.internal }
func (e AuthHeaderRequiredError) StatusCode() int  { return http.StatusUnauthorized }

// GatewayError is an error type that generates a 502 status code, used when
// an external collaborator fails in a way the caller must see.
type GatewayError struct {
	Message string
	err     error
}

// NewBadGatewayError returns a GatewayError with the message and error
// specified.
func NewBadGatewayError(message string, err error) *GatewayError {
	return &GatewayError{Message: message, err: err}
}

func (e *GatewayError) StatusCode() int { return http.StatusBadGateway }

func (e *GatewayError) Error() string {
	msg := e.Message
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}
