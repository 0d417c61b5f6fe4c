package sensor

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTimeout indicates the device did not answer within the retry budget
	ErrTypeTimeout ErrorType = iota
	// ErrTypeInvalidArgument indicates a request value outside the device's accepted range
	ErrTypeInvalidArgument
	// ErrTypeTransport indicates a serial link failure (read or write)
	ErrTypeTransport
	// ErrTypeClosed indicates the session was closed before or during the operation
	ErrTypeClosed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeInvalidArgument:
		return "Invalid Argument"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeClosed:
		return "Session Closed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred during device communication
type DeviceError struct {
	Type      ErrorType // Category of error
	Message   string    // Human-readable error message
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeTimeout,
		Message:   message,
		Retryable: true,
	}
}

// NewInvalidArgumentError creates an invalid argument error
func NewInvalidArgumentError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeInvalidArgument,
		Message:   message,
		Retryable: false,
	}
}

// NewTransportError creates a transport error
func NewTransportError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeTransport,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewClosedError creates a session closed error
func NewClosedError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeClosed,
		Message:   message,
		Retryable: false,
	}
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeTimeout
	}
	return false
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeInvalidArgument
	}
	return false
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeTransport
	}
	return false
}

// IsClosed checks if an error is a session closed error
func IsClosed(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeClosed
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}
