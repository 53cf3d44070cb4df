package apperrors

import (
	"errors"
	"net/http"
)

// Error kinds. Wrap them with the constructors below; match with errors.Is.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)

// Error carries a client-facing message on top of one of the error kinds.
type Error struct {
	Err     error
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a referenced record that does not exist.
func NotFound(message string) error {
	return &Error{Err: ErrNotFound, Message: message}
}

// BadRequest reports invalid input.
func BadRequest(message string) error {
	return &Error{Err: ErrBadRequest, Message: message}
}

// Conflict reports a uniqueness violation, such as a taken handle.
func Conflict(message string) error {
	return &Error{Err: ErrConflict, Message: message}
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// HTTPStatus maps err to the status code returned to clients.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client. Unclassified
// errors are reduced to a generic text.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return "internal server error"
}
