package errutil

import (
	"errors"
	"fmt"

	"github.com/dwarflabs/dwarfbot/pkg/log"
)

// Error taxonomy used across the bot. User-facing entry points convert
// these into replies; the core engines return them as structured outcomes
// instead of letting failures propagate.

// ValidationError rejects a user input before any mutation happens.
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

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a referenced association, channel or role that no
// longer exists.
type NotFoundError struct {
	Kind string // "association", "channel", "role", ...
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Ref)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, ref string) *NotFoundError {
	return &NotFoundError{Kind: kind, Ref: ref}
}

// PlatformError wraps a failed Discord API call.
type PlatformError struct {
	Operation string
	Err       error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("discord %s: %v", e.Operation, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewPlatformError creates a PlatformError.
func NewPlatformError(operation string, err error) *PlatformError {
	return &PlatformError{Operation: operation, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// HandleDiscordError runs fn and logs any error as a Discord operation
// failure. The error is returned wrapped as a PlatformError.
func HandleDiscordError(operation string, fn func() error) error {
	if err := fn(); err != nil {
		log.ErrorLoggerRaw().Error("Discord operation failed", "operation", operation, "error", err)
		return NewPlatformError(operation, err)
	}
	return nil
}

// HandleStoreError runs fn and logs any error as a store failure, wrapping
// it with the operation and path for context.
func HandleStoreError(operation, path string, fn func() error) error {
	if err := fn(); err != nil {
		log.ErrorLoggerRaw().Error("Store operation failed", "operation", operation, "path", path, "error", err)
		return fmt.Errorf("store %s %s: %w", operation, path, err)
	}
	return nil
}
