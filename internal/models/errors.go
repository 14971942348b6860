package models

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrRuleNotFound       = errors.New("rule not found")
	ErrAlertNotFound      = errors.New("alert not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
)

// LoadError reports a source table that lacks a required column.
type LoadError struct {
	Table  string
	Column string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("table %s: required column %q is missing", e.Table, e.Column)
}

// ValidationError is a user-facing input error. State is left unchanged
// whenever one is returned, so the caller may retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
