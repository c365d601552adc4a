package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/memo-tagger/internal/store"
)

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrMemoNotFound indicates that the memo does not exist.
	ErrMemoNotFound = errors.New("memo not found")

	// ErrInvalidMemo indicates that memo input failed validation.
	ErrInvalidMemo = errors.New("invalid memo")

	// ErrRunNotFound indicates that no enrichment run with the id is known,
	// either because it never existed or its record has expired.
	ErrRunNotFound = errors.New("enrichment run not found")

	// ErrTaggingFailed indicates that a memo could not be classified. Background
	// tagging only reports it when the memo could not be marked as failed
	// either.
	ErrTaggingFailed = errors.New("memo tagging failed")
)

// MemoServiceError wraps errors from the memo service with context.
type MemoServiceError struct {
	// Operation is the operation that failed (e.g., "create_memo", "import_memos")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for MemoServiceError.
func (e *MemoServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("memo service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("memo service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *MemoServiceError) Unwrap() error {
	return e.Err
}

// NewMemoServiceError creates a new MemoServiceError.
// It returns known sentinel errors directly without wrapping.
func NewMemoServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrMemoNotFound) || errors.Is(err, store.ErrMemoNotFound) {
		return ErrMemoNotFound
	}

	return &MemoServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
