// Package apperror defines the application error taxonomy and its mapping
// onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an AppError.
type Type int

const (
	Unknown Type = iota
	Validation
	Conflict
	NotFound
	Auth
	Persistence
)

func (t Type) String() string {
	switch t {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Auth:
		return "auth"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// AppError carries a user-facing message and the underlying cause.
type AppError struct {
	Type    Type
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Auth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func New(t Type, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

func NewValidation(message string) *AppError {
	return New(Validation, message, nil)
}

func NewConflict(message string, err error) *AppError {
	return New(Conflict, message, err)
}

func NewNotFound(message string) *AppError {
	return New(NotFound, message, nil)
}

func NewAuth(message string, err error) *AppError {
	return New(Auth, message, err)
}

func NewPersistence(message string, err error) *AppError {
	return New(Persistence, message, err)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// TypeOf returns the type of the first AppError in err's chain, or Unknown.
func TypeOf(err error) Type {
	if ae, ok := As(err); ok {
		return ae.Type
	}
	return Unknown
}

func IsValidation(err error) bool  { return TypeOf(err) == Validation }
func IsConflict(err error) bool    { return TypeOf(err) == Conflict }
func IsNotFound(err error) bool    { return TypeOf(err) == NotFound }
func IsAuth(err error) bool        { return TypeOf(err) == Auth }
func IsPersistence(err error) bool { return TypeOf(err) == Persistence }
