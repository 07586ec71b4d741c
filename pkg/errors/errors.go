// Package errors defines the sentinel error kinds of the search engine and
// their HTTP status mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDuplicateDocument is returned when indexing a document ID that is
	// already present in the catalog. Recoverable: the caller must pick a
	// new ID or treat the attempt as a no-op.
	ErrDuplicateDocument = errors.New("duplicate document")
	// ErrDocumentNotFound is returned when a catalog lookup misses.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrStorageUnavailable wraps failures of the underlying relational
	// medium. Fatal for the affected operation; never retried internally.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("operation timed out")
	// ErrInternal is the fallback for unexpected failures.
	ErrInternal = errors.New("internal error")
)

// AppError pairs a sentinel error with a human-readable message and an HTTP
// status code for the service layer.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError from a sentinel, status code, and message.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with printf-style message formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the service layer should
// respond with.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateDocument):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrStorageUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
