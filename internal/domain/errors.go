package domain

import (
	"errors"
	"strings"
)

var (
	ErrRateLimited      = errors.New("too many subscription attempts, please try again later")
	ErrNotFound         = errors.New("subscriber not found")
	ErrAlreadyConfirmed = errors.New("already confirmed")
	ErrInvalidToken     = errors.New("invalid token")
	ErrUnauthorized     = errors.New("unauthorized")
)

// ValidationError carries every violated rule for one request.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, ", ")
}

// RepositoryError wraps a storage backend failure with the operation name.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return "failed to " + e.Op + ": " + e.Err.Error()
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// EmailDeliveryError is returned when the provider rejects a message or
// accepts it without returning a message id.
type EmailDeliveryError struct {
	Kind string
	Err  error
}

func (e *EmailDeliveryError) Error() string {
	return "failed to send " + e.Kind + " email: " + e.Err.Error()
}

func (e *EmailDeliveryError) Unwrap() error { return e.Err }
