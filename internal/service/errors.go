package service

import (
	"errors"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLoginRequired      = errors.New("login required")
	ErrEmptyCart          = errors.New("cart is empty")
)

// ValidationError carries a message fit for showing next to a form.
// It matches ErrValidation, or ErrConflict when built with conflict.
type ValidationError struct {
	Msg  string
	kind error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool {
	if e.kind == nil {
		return target == ErrValidation
	}
	return target == e.kind
}

func invalid(msg string) error {
	return &ValidationError{Msg: msg, kind: ErrValidation}
}

func conflict(msg string) error {
	return &ValidationError{Msg: msg, kind: ErrConflict}
}

// Message returns the user-facing text for validation, conflict and
// credential errors, and "" for anything else.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return ErrInvalidCredentials.Error()
	}
	return ""
}
