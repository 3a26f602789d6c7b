package knowledge

import (
	"errors"
	"net/http"
)

// Domain errors for knowledge operations.
var (
	ErrNotFound          = errors.New("knowledge source not found")
	ErrLengthMismatch    = errors.New("texts, metadatas, and ids must have equal length")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document contains no text")
	ErrEmptyQuery        = errors.New("search query is required")
	ErrFileTooLarge      = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps knowledge domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrLengthMismatch),
		errors.Is(err, ErrEmptyDocument),
		errors.Is(err, ErrEmptyQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
