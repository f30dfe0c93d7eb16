package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindInternal              Kind = "internal"
	KindValidation            Kind = "validation"
	KindInvalidConfiguration  Kind = "invalid_configuration"
	KindPaymentRequired       Kind = "payment_required"
	KindConflict              Kind = "conflict"
	KindConcurrencyConflict   Kind = "concurrency_conflict"
	KindNotFound              Kind = "not_found"
	KindInvalidTransition     Kind = "invalid_transition"
	KindPermissionDenied      Kind = "permission_denied"
	KindServiceNotInitialized Kind = "not_initialized"
)

// AppError is a custom error type that includes an HTTP status code and a kind.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    Kind   // Error category used by callers for branching
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
// The kind is derived from the status code.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
		Err:     err,
	}
}

// Validation reports malformed or missing request fields.
func Validation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

// InvalidConfiguration reports inconsistent court or facility data.
// It is not user-correctable.
func InvalidConfiguration(message string) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindInvalidConfiguration, Message: message}
}

// PaymentRequired reports an unpaid activation attempt.
func PaymentRequired(message string) *AppError {
	return &AppError{Code: http.StatusPaymentRequired, Kind: KindPaymentRequired, Message: message}
}

// Conflict reports an overlap with an occupying booking.
func Conflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: message}
}

// ConcurrencyConflict reports a transaction that kept losing against a
// concurrent writer on the same court.
func ConcurrencyConflict(err error, message string) *AppError {
	return &AppError{Code: http.StatusConflict, Kind: KindConcurrencyConflict, Message: message, Err: err}
}

// InvalidTransition reports a lifecycle transition not allowed from the current status.
func InvalidTransition(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Kind: KindInvalidTransition, Message: message}
}

// KindOf returns the kind of the first AppError in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusForbidden:
		return KindPermissionDenied
	case http.StatusConflict:
		return KindConflict
	case http.StatusPaymentRequired:
		return KindPaymentRequired
	default:
		return KindInternal
	}
}
