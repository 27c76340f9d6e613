package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes of the spectator binary.
const (
	ExitSuccess       = 0   // Clean run.
	ExitErrorGeneric  = 1   // Unexpected failure.
	ExitErrorConfig   = 4   // Invalid flags or environment.
	ExitErrorCanceled = 130 // Interrupted (SIGINT).
)

// NotCallableMessage is the fixed message returned when a GC consumer
// registration is attempted with something that cannot be invoked.
const NotCallableMessage = "Expecting a function to be called after GC events."

// Lifecycle state errors.
var (
	ErrNotInitialized    = errors.New("spectator: not initialized")
	ErrAlreadyInit       = errors.New("spectator: already initialized")
	ErrAlreadyRegistered = errors.New("spectator: a GC consumer is already registered")
	ErrShutdown          = errors.New("spectator: shut down")
)

// ConfigError represents a user configuration error, such as an invalid flag
// or environment value.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ArgumentError is raised synchronously to the caller when an exported
// operation receives an argument of the wrong shape.
type ArgumentError struct {
	// Message is the caller-facing text.
	Message string
	// Got describes the rejected argument's dynamic type.
	Got string
}

// Error returns the caller-facing message.
func (e ArgumentError) Error() string { return e.Message }

// NewNotCallableError builds the registration error for a value that is not a
// usable GC consumer.
func NewNotCallableError(v any) error {
	return ArgumentError{Message: NotCallableMessage, Got: fmt.Sprintf("%T", v)}
}

// StateError reports an operation attempted in the wrong lifecycle state.
type StateError struct {
	// Op is the rejected operation.
	Op string
	// Cause is one of the lifecycle sentinel errors.
	Cause error
}

// Error returns "<op>: <cause>".
func (e StateError) Error() string { return e.Op + ": " + e.Cause.Error() }

// Unwrap exposes the sentinel for errors.Is.
func (e StateError) Unwrap() error { return e.Cause }

// ConsumerError wraps a failure returned or raised by a GC consumer. It never
// propagates to the application; the delivery loop logs and counts it.
type ConsumerError struct {
	// Kind is the GC kind of the event being delivered.
	Kind string
	// Cause is the returned error or the recovered panic value.
	Cause error
}

// Error returns a description of the consumer failure.
func (e ConsumerError) Error() string {
	return fmt.Sprintf("gc consumer failed on %s event: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying cause.
func (e ConsumerError) Unwrap() error { return e.Cause }

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// Returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
