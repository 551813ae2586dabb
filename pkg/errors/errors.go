package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Circulation and ledger error codes. All recoverable: they are reported
	// to the desk with enough context to display or retry, never fatal.
	CodeItemUnavailable     = "ITEM_UNAVAILABLE"
	CodeAlreadyQueued       = "ALREADY_QUEUED"
	CodePatronBlocked       = "PATRON_BLOCKED"
	CodeLoanCapExceeded     = "LOAN_CAP_EXCEEDED"
	CodeRenewalDenied       = "RENEWAL_DENIED"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeOverpaymentRejected = "OVERPAYMENT_REJECTED"
	CodeBusy                = "BUSY"
	CodeInvariantViolation  = "INVARIANT_VIOLATION"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ItemUnavailable reports the item's current state so the desk can explain
// the refusal to the patron.
func ItemUnavailable(itemID, status string) *AppError {
	return &AppError{
		Code:       CodeItemUnavailable,
		Message:    "item is not available for this operation",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"item_id": itemID,
			"status":  status,
		},
	}
}

func AlreadyQueued(itemID, patronID string) *AppError {
	return &AppError{
		Code:       CodeAlreadyQueued,
		Message:    "patron already holds a place in this item's queue",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"item_id":   itemID,
			"patron_id": patronID,
		},
	}
}

func PatronBlocked(patronID, balance string) *AppError {
	return &AppError{
		Code:       CodePatronBlocked,
		Message:    "patron account is blocked by outstanding balance",
		HTTPStatus: http.StatusForbidden,
		Details: map[string]any{
			"patron_id": patronID,
			"balance":   balance,
		},
	}
}

func LoanCapExceeded(patronID string, openLoans, maxItems int) *AppError {
	return &AppError{
		Code:       CodeLoanCapExceeded,
		Message:    "patron already holds the maximum number of open loans",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"patron_id":  patronID,
			"open_loans": openLoans,
			"max_items":  maxItems,
		},
	}
}

func RenewalDenied(itemID, reason string) *AppError {
	return &AppError{
		Code:       CodeRenewalDenied,
		Message:    "loan cannot be renewed",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"item_id": itemID,
			"reason":  reason,
		},
	}
}

func InvalidAmount(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidAmount,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// OverpaymentRejected refuses a payment that exceeds the outstanding
// balance: the ledger must reconcile to exactly the assessed total, so
// excess is never silently absorbed.
func OverpaymentRejected(patronID, amount, balance string) *AppError {
	return &AppError{
		Code:       CodeOverpaymentRejected,
		Message:    "payment exceeds outstanding balance",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"patron_id": patronID,
			"amount":    amount,
			"balance":   balance,
		},
	}
}

// Busy signals transient per-entity lock contention; the caller should
// retry rather than treat it as failure.
func Busy(entity string) *AppError {
	return &AppError{
		Code:       CodeBusy,
		Message:    "entity is busy with another desk operation, retry shortly",
		HTTPStatus: http.StatusServiceUnavailable,
		Details: map[string]any{
			"entity": entity,
		},
	}
}

// InvariantViolation surfaces a cross-entity inconsistency (for example an
// item marked LOANED with no open loan). These indicate a programming or
// data fault rather than operator error.
func InvariantViolation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeInvariantViolation,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Details:    details,
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
