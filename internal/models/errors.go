package models

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied  = errors.New("capture device permission denied")
	ErrTooShort          = errors.New("answer too short")
	ErrInvalidAIResponse = errors.New("invalid AI response")
	ErrTransient         = errors.New("transient AI failure")
	ErrUploadFailure     = errors.New("media upload failed")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("duplicate record")
	ErrStore             = errors.New("store error")
	ErrQuotaExceeded     = errors.New("free limit reached")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAnswerNotSaved    = errors.New("answer not saved")
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a driver error so callers can match ErrStore without losing the cause.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
