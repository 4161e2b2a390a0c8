package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// StoreErrorMessage describes question store failures.
	StoreErrorMessage = "question store operation failed"
	// ModelErrorMessage describes model provider failures.
	ModelErrorMessage = "model provider request failed"
	// CacheErrorMessage describes cache failures.
	CacheErrorMessage = "cache operation failed"
	// CacheMissMessage is used when a cache key is absent.
	CacheMissMessage = "cache entry not found"
)

var (
	ErrRequestMalformed = errors.New("malformed request")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
	ErrToolExecution    = errors.New("tool execution failed")
	ErrModelGateway     = errors.New("model gateway failure")
	ErrStore            = errors.New("question store failure")
	ErrCacheMiss        = errors.New("cache miss")
)

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

// BadRequest reports a client error with message shown verbatim.
func BadRequest(message string) *AppError {
	return New(ErrRequestMalformed, http.StatusBadRequest, message)
}

// WrapModel marks err as a model provider failure.
func WrapModel(err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%w: %w", ErrModelGateway, err), http.StatusBadGateway, ModelErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
