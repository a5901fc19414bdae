package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// trip, child item, or user does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidCredentials is returned by sign-in when the email is not in the
// demo registry or the password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInsufficientBalance is returned when a point deduction exceeds the
// user's balance. The balance is left unchanged.
var ErrInsufficientBalance = errors.New("insufficient points")

// ErrUnauthenticated is returned by operations that need a signed-in user
// when the session is empty.
var ErrUnauthenticated = errors.New("no user signed in")

// ErrUnsupportedSchema is returned when a stored document was written by a
// newer schema version than this build understands. Such documents are never
// overwritten.
var ErrUnsupportedSchema = errors.New("unsupported schema version")

// ErrConflict is returned when an operation cannot run alongside one already
// in progress, such as starting a second location watch.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// Validation codes carried by ValidationError.Code.
const (
	CodeInvalidName      = "invalid-name"
	CodeInvalidEmail     = "invalid-email"
	CodeWeakPassword     = "weak-password"
	CodePasswordMismatch = "password-mismatch"
	CodeDuplicateAccount = "duplicate-account"
	CodeInvalidInput     = "invalid-input"
	CodeInvalidDates     = "invalid-dates"
	CodeInvalidStatus    = "invalid-status"
)

// ValidationError reports the first violated constraint of an operation.
// It wraps ErrValidation so callers can test with errors.Is and recover the
// machine-readable Code with errors.As.
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError builds a ValidationError with the given code and message.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ValidationCode returns the Code of the first ValidationError in err's chain,
// or "" if there is none.
func ValidationCode(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
