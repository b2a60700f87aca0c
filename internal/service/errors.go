package service

import (
	"errors"
	"fmt"
	"time"
)

// Categorías de error que la capa HTTP traduce a códigos de estado.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrBadRequest         = errors.New("bad request")
	ErrForbidden          = errors.New("forbidden")
	ErrUnavailable        = errors.New("service unavailable")
)

// serviceError asocia un mensaje estable para el cliente a una categoría.
type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }

func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

func badRequest(msg string) error {
	return newError(ErrBadRequest, msg)
}

var (
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrEmailTaken         = newError(ErrConflict, "User with this email already exists")
	ErrEmailBlocked       = newError(ErrTooManyRequests, "This email is temporarily blocked")
	ErrWrongCredentials   = newError(ErrInvalidCredentials, "Invalid email or password")
	ErrInvalidToken       = newError(ErrUnauthorized, "Invalid or expired token")
	ErrEmailSendFailure   = newError(ErrUnavailable, "Email delivery unavailable")
	ErrNotProjectOwner    = newError(ErrForbidden, "Access denied: you are not the project owner")
	ErrNotProjectMember   = newError(ErrForbidden, "Access denied: you are not a participant of this project")
	ErrEmailNotVerified   = newError(ErrForbidden, "Email is not verified")
	ErrServiceUnavailable = newError(ErrUnavailable, "Service not configured")
)

// LockoutError indica que el login está bloqueado hasta BlockedUntil.
type LockoutError struct {
	Attempts     int
	BlockedUntil time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("Too many failed login attempts. Try again after %s", e.BlockedUntil.UTC().Format(time.RFC3339))
}

func (e *LockoutError) Unwrap() error { return ErrTooManyRequests }

// PublicMessage devuelve el mensaje estable del error, si lo tiene.
func PublicMessage(err error) (string, bool) {
	var se *serviceError
	if errors.As(err, &se) {
		return se.msg, true
	}
	var le *LockoutError
	if errors.As(err, &le) {
		return le.Error(), true
	}
	return "", false
}
