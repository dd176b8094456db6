// Package errors provides custom error types for the LIZSYS API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

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

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrDuplicateEmail     = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrUserNotFound       = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInvalidDate    = &AppError{Code: "INVALID_DATE", Message: "Invalid or unparseable date", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Client errors.
var (
	ErrClientNotFound     = &AppError{Code: "CLIENT_NOT_FOUND", Message: "Client not found", StatusCode: http.StatusNotFound}
	ErrClientHasContracts = &AppError{Code: "CLIENT_HAS_CONTRACTS", Message: "Client has existing contracts", StatusCode: http.StatusConflict}
)

// Asset errors.
var (
	ErrAssetNotFound = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
)

// Contract errors.
var (
	ErrContractNotFound        = &AppError{Code: "CONTRACT_NOT_FOUND", Message: "Contract not found", StatusCode: http.StatusNotFound}
	ErrDuplicateContractNumber = &AppError{Code: "DUPLICATE_CONTRACT_NUMBER", Message: "A contract with this number already exists", StatusCode: http.StatusConflict}
	ErrContractHasPayments     = &AppError{Code: "CONTRACT_HAS_PAYMENTS", Message: "Contract has recorded payments", StatusCode: http.StatusConflict}
	ErrInvalidTransfer         = &AppError{Code: "INVALID_TRANSFER", Message: "Contract cannot be transferred to its current owner", StatusCode: http.StatusBadRequest}
	ErrContractTransferred     = &AppError{Code: "CONTRACT_TRANSFERRED", Message: "Contract has already been transferred", StatusCode: http.StatusConflict}
)

// Payment errors.
var (
	ErrPaymentNotFound            = &AppError{Code: "PAYMENT_NOT_FOUND", Message: "Payment not found", StatusCode: http.StatusNotFound}
	ErrAssociatedContractNotFound = &AppError{Code: "ASSOCIATED_CONTRACT_NOT_FOUND", Message: "No contract associated with this client", StatusCode: http.StatusNotFound}
	ErrReceiptNotFound            = &AppError{Code: "RECEIPT_NOT_FOUND", Message: "Receipt not found", StatusCode: http.StatusNotFound}
	ErrUnsupportedReceiptType     = &AppError{Code: "UNSUPPORTED_RECEIPT_TYPE", Message: "Only PDF, JPEG, and PNG files are allowed", StatusCode: http.StatusBadRequest}
)

// Document errors.
var (
	ErrDocumentNotFound = &AppError{Code: "DOCUMENT_NOT_FOUND", Message: "Document not found", StatusCode: http.StatusNotFound}
)
