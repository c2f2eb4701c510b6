// Package httpx provides JSON response helpers and the error taxonomy
// shared by every API handler.
package httpx

import (
	"errors"
	"net/http"
)

// Error categories. Services build their sentinels with the constructors
// below; handlers hand any error to RespondError and get the right status
// code without inspecting store internals.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation")
	ErrUnauthorized = errors.New("unauthorized")
)

type categorized struct {
	category error
	msg      string
}

func (e categorized) Error() string        { return e.msg }
func (e categorized) Is(target error) bool { return target == e.category }

// NotFound builds a 404 error with a caller-facing message.
func NotFound(msg string) error { return categorized{ErrNotFound, msg} }

// Conflict builds a 409 error, used for uniqueness violations.
func Conflict(msg string) error { return categorized{ErrConflict, msg} }

// Invalid builds a 400 validation error. The message should name the
// offending field where feasible.
func Invalid(msg string) error { return categorized{ErrValidation, msg} }

// Unauthorized builds a 401 error.
func Unauthorized(msg string) error { return categorized{ErrUnauthorized, msg} }

// RespondError maps a categorized error to its HTTP response. Uncategorized
// errors become a generic 500; the caller is expected to have logged the
// detail server-side.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnauthorized):
		Error(w, http.StatusUnauthorized, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "Erreur serveur interne")
	}
}

// IsInternal reports whether err falls outside the categorized taxonomy and
// should be logged with full detail before responding.
func IsInternal(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrConflict) &&
		!errors.Is(err, ErrValidation) &&
		!errors.Is(err, ErrUnauthorized)
}
