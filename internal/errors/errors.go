package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the API boundary.
type Kind int

const (
	// KindValidation is a caller-correctable failure.
	KindValidation Kind = iota + 1
	// KindAuth is an expected authentication or authorization denial.
	KindAuth
	// KindNotFound means the addressed entity does not exist.
	KindNotFound
	// KindFatal is an unexpected fault such as an unreachable store.
	KindFatal
)

// Error is a classified domain error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, status int, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Status: status}
}

var (
	// ErrDuplicateUser is returned when registering an email that is already taken.
	ErrDuplicateUser = newError(KindAuth, http.StatusConflict, "DUPLICATE_USER", "a user with this email already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = newError(KindAuth, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown, used, revoked or expired.
	ErrInvalidRefreshToken = newError(KindAuth, http.StatusBadRequest, "INVALID_REFRESH_TOKEN", "invalid or expired refresh token")
	// ErrForbidden is returned when the caller lacks the role or ownership for a resource.
	ErrForbidden = newError(KindAuth, http.StatusForbidden, "FORBIDDEN", "you do not have permission to access this resource")

	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = newError(KindNotFound, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	// ErrBookNotFound is returned when a book is not found.
	ErrBookNotFound = newError(KindNotFound, http.StatusNotFound, "BOOK_NOT_FOUND", "book not found")
	// ErrLoanNotFound is returned when a book loan is not found.
	ErrLoanNotFound = newError(KindNotFound, http.StatusNotFound, "LOAN_NOT_FOUND", "book loan not found")

	// ErrIDMismatch is returned when the id in the body differs from the id in the path.
	ErrIDMismatch = newError(KindValidation, http.StatusBadRequest, "ID_MISMATCH", "id in body does not match id in path")
	// ErrBookUnavailable is returned when borrowing a book that is already out.
	ErrBookUnavailable = newError(KindValidation, http.StatusBadRequest, "BOOK_UNAVAILABLE", "book is not available")
	// ErrLoanAlreadyReturned is returned when returning a loan twice.
	ErrLoanAlreadyReturned = newError(KindValidation, http.StatusBadRequest, "LOAN_ALREADY_RETURNED", "book loan has already been returned")
	// ErrEmailTaken is returned when a profile update collides with another user's email.
	ErrEmailTaken = newError(KindValidation, http.StatusConflict, "EMAIL_TAKEN", "email is already used by another user")
	// ErrInvalidEmail is returned when an email address is syntactically invalid.
	ErrInvalidEmail = newError(KindValidation, http.StatusBadRequest, "INVALID_EMAIL", "invalid email address")
)

// Validation builds an ad-hoc caller-correctable error.
func Validation(code, message string) *Error {
	return newError(KindValidation, http.StatusBadRequest, code, message)
}

// FatalError wraps an unexpected fault from a collaborator.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a FatalError for operation op. A nil err stays nil.
func Fatal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Op: op, Err: err}
}

// KindOf reports the classification of err. Unclassified errors are fatal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindFatal
}

// IsAuthFailure reports whether err is an expected auth denial.
func IsAuthFailure(err error) bool {
	return KindOf(err) == KindAuth
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unclassified
// becomes a generic 500 so internal details never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	var de *Error
	if errors.As(err, &de) {
		return NewHTTPError(de.Status, de.Message, de.Code)
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
