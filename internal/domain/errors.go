package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMissingCredential = errors.New("gemini api key is not configured")
	ErrAlreadyRunning    = errors.New("a batch is already running")
	ErrSessionClosed     = errors.New("session closed")
	ErrStorageFull       = errors.New("history storage is full")
)

// Validation error codes. They are stable identifiers that the HTTP layer
// maps to localized messages.
const (
	CodeMissingDesign     = "missing_design"
	CodeNoProducts        = "no_products"
	CodeBatchTooLarge     = "batch_too_large"
	CodeInvalidVariations = "invalid_variations"
	CodeDuplicateProduct  = "duplicate_product"
	CodeInvalidMode       = "invalid_mode"
	CodeInvalidInput      = "invalid_input"
)

// ValidationError rejects a request before any job runs.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
