package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed input at a channel boundary.
	ErrValidation = errors.New("validation failed")

	ErrNotConfigured       = errors.New("service not configured")
	ErrEmptyResponse       = errors.New("empty response")
	ErrCodeNotFound        = errors.New("verification code not found")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrCodeMismatch        = errors.New("verification code does not match")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// ExternalServiceError wraps a failure of a translation, detection, AI or transport call.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func external(service string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalServiceError{Service: service, Err: err}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
