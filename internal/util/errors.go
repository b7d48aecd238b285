package util

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRegistered    = errors.New("user already exists")
	ErrAlreadyTeacher     = errors.New("user already exists as a teacher")
	ErrTokenRevoked       = errors.New("token revoked")
)

// ValidationError 携带所有字段校验失败信息，对应 400
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "Validation Error: " + strings.Join(e.Messages, ", ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
