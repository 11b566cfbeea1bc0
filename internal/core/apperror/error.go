// Package apperror provides structured error handling for the inventory core.
// All business errors must use AppError so callers receive typed,
// machine-readable failure signals.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by the failure taxonomy of the core.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeStateConflict        = "STATE_CONFLICT"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodePostingFailed        = "POSTING_FAILED"
	CodeConsistencyViolation = "CONSISTENCY_VIOLATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the core.
// It implements the error interface and provides structured details.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code for boundary layers
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewStateConflict creates a workflow state conflict error (422).
// Used when an operation is attempted in an incompatible document state.
func NewStateConflict(operation, currentState string) *AppError {
	return &AppError{
		Code:       CodeStateConflict,
		Message:    fmt.Sprintf("operation %q is not allowed in state %q", operation, currentState),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"operation": operation, "state": currentState},
	}
}

// NewInsufficientStock creates a stock shortage error.
// Note: consumption paths report shortage as a structured result, not an
// error; this constructor serves callers that require full consumption.
func NewInsufficientStock(productID string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewPostingFailed creates an error for a rejected ledger posting.
// Always propagates as a hard failure so the triggering transition rolls back.
func NewPostingFailed(referenceID string, err error) *AppError {
	return &AppError{
		Code:       CodePostingFailed,
		Message:    "ledger posting rejected",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"reference_id": referenceID},
		Err:        err,
	}
}

// NewConsistencyViolation creates an error for a detected invariant breach
// (sum of batch remainders diverging from the stock aggregate). These are
// fatal: the operation halts and the pair is flagged for manual reconciliation.
func NewConsistencyViolation(productID, warehouseID string, batchSum, aggregate float64) *AppError {
	return &AppError{
		Code:       CodeConsistencyViolation,
		Message:    "batch ledger and stock aggregate diverged",
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{
			"product_id":   productID,
			"warehouse_id": warehouseID,
			"batch_sum":    batchSum,
			"aggregate":    aggregate,
		},
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified by another user, refresh and retry",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal error (hides details from clients).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helpers ---

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode checks whether err carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsStateConflict checks if error is CodeStateConflict.
func IsStateConflict(err error) bool {
	return IsCode(err, CodeStateConflict)
}

// IsInsufficientStock checks if error is CodeInsufficientStock.
func IsInsufficientStock(err error) bool {
	return IsCode(err, CodeInsufficientStock)
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
