package errors

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidReceiver    = errors.New("invalid receiver")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrBadRequest         = errors.New("bad request")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrPersistence        = errors.New("operation failed")
)

type APIError struct {
	Message string `json:"error"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, code int) *APIError {
	return &APIError{
		Message: message,
		Code:    code,
	}
}

// IsNotFound reports whether err wraps any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrMessageNotFound) || errors.Is(err, ErrRestaurantNotFound)
}

// HTTPStatusFromError maps a (possibly wrapped) error to a status code.
func HTTPStatusFromError(err error) int {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidReceiver), errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show to a client. Persistence
// and unknown failures collapse into a generic message.
func PublicMessage(err error) string {
	if HTTPStatusFromError(err) == http.StatusInternalServerError {
		return ErrPersistence.Error()
	}
	return err.Error()
}
