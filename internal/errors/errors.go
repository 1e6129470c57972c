// Package errors provides custom error types for the fintrack API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// NotFound returns a copy of sentinel whose message names the missing id.
func NotFound(sentinel *AppError, resource, id string) *AppError {
	return WithMessage(sentinel, fmt.Sprintf("%s %s not found", resource, id))
}

// Prefix labels err with the operation that failed, e.g.
// "Failed to create budget: start date must be before end date".
// AppErrors keep their code and status; anything else becomes an internal error.
func Prefix(operation string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:       appErr.Code,
			Message:    operation + ": " + appErr.Message,
			StatusCode: appErr.StatusCode,
			Internal:   appErr.Internal,
		}
	}
	return &AppError{
		Code:       ErrInternalServer.Code,
		Message:    operation + ": " + ErrInternalServer.Message,
		StatusCode: ErrInternalServer.StatusCode,
		Internal:   err,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryRequired = &AppError{Code: "CATEGORY_REQUIRED", Message: "A category is required", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
)

// Subscription errors.
var (
	ErrSubscriptionNotFound    = &AppError{Code: "SUBSCRIPTION_NOT_FOUND", Message: "Subscription not found", StatusCode: http.StatusNotFound}
	ErrInvalidBillingFrequency = &AppError{Code: "INVALID_BILLING_FREQUENCY", Message: "Unsupported billing frequency", StatusCode: http.StatusBadRequest}
	ErrCustomFrequencyDays     = &AppError{Code: "CUSTOM_FREQUENCY_DAYS_REQUIRED", Message: "Custom billing frequency requires a positive number of days", StatusCode: http.StatusBadRequest}
	ErrPatternNotFound         = &AppError{Code: "PATTERN_NOT_FOUND", Message: "Subscription pattern not found", StatusCode: http.StatusNotFound}
	ErrEmptyCandidate          = &AppError{Code: "EMPTY_CANDIDATE", Message: "Subscription candidate has no matching transactions", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound     = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrInvalidDateRange   = &AppError{Code: "INVALID_DATE_RANGE", Message: "Start date must be before end date", StatusCode: http.StatusBadRequest}
	ErrInvalidThresholds  = &AppError{Code: "INVALID_ALERT_THRESHOLDS", Message: "Alert thresholds must be positive and ascending", StatusCode: http.StatusBadRequest}
	ErrScenarioNotFound   = &AppError{Code: "SCENARIO_NOT_FOUND", Message: "Budget scenario not found", StatusCode: http.StatusNotFound}
	ErrBudgetAlertMissing = &AppError{Code: "ALERT_NOT_FOUND", Message: "Budget alert not found", StatusCode: http.StatusNotFound}
)
