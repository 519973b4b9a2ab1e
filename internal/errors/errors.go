package errors

import "net/http"

// APIError is the error type every handler and service returns for expected
// failures. Kind is a stable machine-readable tag, Message is for humans,
// Internal carries the underlying error for logging only.
type APIError struct {
	Status   int    `json:"-"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Internal error  `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

func newAPIError(status int, kind, message string, err error) *APIError {
	return &APIError{
		Status:   status,
		Kind:     kind,
		Message:  message,
		Internal: err,
	}
}

func NotFound(message string, err error) *APIError {
	return newAPIError(http.StatusNotFound, "not_found", message, err)
}

func InvalidParent(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, "invalid_parent", message, err)
}

func InvalidMove(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, "invalid_move", message, err)
}

func Conflict(message string, err error) *APIError {
	return newAPIError(http.StatusConflict, "conflict", message, err)
}

func NotEmpty(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, "not_empty", message, err)
}

func NotTextLike(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, "not_text_like", message, err)
}

func TooLarge(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, "too_large", message, err)
}

func Unauthorized(message string, err error) *APIError {
	return newAPIError(http.StatusUnauthorized, "unauthorized", message, err)
}

func Forbidden(message string, err error) *APIError {
	return newAPIError(http.StatusForbidden, "forbidden", message, err)
}

func BadRequest(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, "bad_request", message, err)
}

func StorageError(message string, err error) *APIError {
	return newAPIError(http.StatusInternalServerError, "storage_error", message, err)
}

func Internal(err error) *APIError {
	return newAPIError(http.StatusInternalServerError, "internal", "Internal server error", err)
}

// NewValidationError wraps a request-binding failure.
func NewValidationError(err error) *APIError {
	return newAPIError(http.StatusBadRequest, "validation", "Invalid request payload", err)
}
