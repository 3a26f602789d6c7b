package storage

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("image not found")
	ErrEmptyKey      = errors.New("storage key must not be empty")
	ErrInvalidKey    = errors.New("storage key contains invalid path segment")
	ErrNotConfigured = errors.New("image storage not configured")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
