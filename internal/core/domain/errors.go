package domain

import "net/http"

// Error is a business error carrying the API error code and the HTTP status
// the boundary layer maps it to. Services return these explicitly; anything
// that is not a *Error collapses to INTERNAL_ERROR at the boundary.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError creates a tagged business error
func NewError(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// Common errors
var (
	ErrUnauthorized       = NewError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized)
	ErrInvalidCredentials = NewError("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized)
	ErrForbidden          = NewError("FORBIDDEN", "not allowed", http.StatusForbidden)
	ErrNotFound           = NewError("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrInternal           = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
)

// Auth errors
var (
	ErrLoginIDExists      = NewError("LOGIN_ID_EXISTS", "login id already registered", http.StatusConflict)
	ErrInvalidAccountType = NewError("INVALID_ACCOUNT_TYPE", "invalid account type", http.StatusBadRequest)
	ErrOrgNotFound        = NewError("ORG_NOT_FOUND", "org not found", http.StatusNotFound)
	ErrOrgInactive        = NewError("ORG_INACTIVE", "org inactive", http.StatusBadRequest)
)

// Payment errors
var (
	ErrPaymentMethodUnsupported = NewError("PAYMENT_METHOD_UNSUPPORTED", "card only", http.StatusBadRequest)
	ErrAlreadyPaid              = NewError("ALREADY_PAID", "order already paid", http.StatusConflict)
	ErrAmountMismatch           = NewError("AMOUNT_MISMATCH", "amount mismatch", http.StatusBadRequest)
	ErrOutOfStock               = NewError("OUT_OF_STOCK", "insufficient stock", http.StatusConflict)
	ErrPaymentRequired          = NewError("PAYMENT_REQUIRED", "subscription required", http.StatusPaymentRequired)
)

// Feature flag errors
var (
	ErrFeatureDisabled    = NewError("FEATURE_DISABLED", "feature disabled", http.StatusServiceUnavailable)
	ErrServiceUnavailable = NewError("SERVICE_UNAVAILABLE", "service temporarily disabled", http.StatusServiceUnavailable)
)

// NewValidationError reports a missing or malformed request field.
// The message identifies which field failed.
func NewValidationError(message string) *Error {
	return NewError("VALIDATION_ERROR", message, http.StatusBadRequest)
}

// NewInvalidRequestError reports a request that is well-formed but not
// acceptable for the operation (wrong checkout kind, missing order id, ...).
func NewInvalidRequestError(message string) *Error {
	return NewError("INVALID_REQUEST", message, http.StatusBadRequest)
}

// NewInvalidOrderError reports an order that cannot be checked out as-is.
func NewInvalidOrderError(message string) *Error {
	return NewError("INVALID_ORDER", message, http.StatusBadRequest)
}
