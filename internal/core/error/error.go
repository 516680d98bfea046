package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// GatewayErrorMessage describes a failed language model call.
	GatewayErrorMessage = "language model call failed"
	// GatewayTimeoutMessage describes a language model call that ran past its deadline.
	GatewayTimeoutMessage = "language model call timed out"
	// AzureErrorMessage describes a failed Azure management request.
	AzureErrorMessage = "azure request failed"
	// NotFoundMessage describes a resource that does not exist.
	NotFoundMessage = "resource not found"
	// RequestErrorMessage is what the console shows for any failed question.
	RequestErrorMessage = "An error occurred while processing request. Please see error log for more details."
)

// StatusClientClosed is reported when the caller abandoned the request.
const StatusClientClosed = 499

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Wrap tags err with status and message unless it already is an AppError,
// in which case the original classification is kept.
func Wrap(err error, status int, message string) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return err
	}
	return New(err, status, message)
}

// IsAppError reports whether err has already been classified.
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// StatusOf returns the status carried by err, or 500 for unclassified errors.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err was classified as a 404.
func IsNotFound(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}
