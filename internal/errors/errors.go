package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrNoteNotFound is returned when a note does not exist or the caller
	// may not see it. Private notes of other users are reported as missing
	// so their existence cannot be probed.
	ErrNoteNotFound = errors.New("note not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned when the username is already taken.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned on login failure. Unknown username
	// and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrInactiveUser is returned when an authenticated user is deactivated.
	ErrInactiveUser = errors.New("inactive user")
	// ErrWriteConflict is returned when the store rejects a write with a
	// constraint violation after rollback.
	ErrWriteConflict = errors.New("write rejected by constraint violation")
)

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

// MapErrorToHTTP maps domain errors to HTTP errors. Only the handler layer
// calls this; services and repositories never see HTTP statuses.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrNoteNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNoteNotFound.Error(), "NOTE_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, ErrEmailTaken.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrUsernameTaken):
		return NewHTTPError(http.StatusConflict, ErrUsernameTaken.Error(), "USERNAME_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInactiveUser):
		return NewHTTPError(http.StatusBadRequest, ErrInactiveUser.Error(), "INACTIVE_USER")
	case errors.Is(err, ErrWriteConflict):
		return NewHTTPError(http.StatusConflict, ErrWriteConflict.Error(), "WRITE_CONFLICT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
