package diagnoses

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/imaging"
	"github.com/JaimeStill/floracare/pkg/storage"
)

// Domain errors for diagnosis operations.
var (
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrInvalidImage    = errors.New("invalid image")
	ErrEmptyMessage    = errors.New("chat message must not be empty")
	ErrInvalidRole     = errors.New("chat role must be user or assistant")
	ErrInvalidAnalysis = errors.New("invalid analysis")
	ErrReplyFailed     = errors.New("chat reply failed")
)

// MapHTTPStatus maps diagnosis domain errors to HTTP status codes.
// Pipeline errors are delegated to workflow.MapHTTPStatus.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidAnalysis):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrUnsupportedFormat),
		errors.Is(err, imaging.ErrEmptyImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrReplyFailed):
		return http.StatusBadGateway
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrEmptyKey),
		errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrNotConfigured):
		return storage.MapHTTPStatus(err)
	}
	return workflow.MapHTTPStatus(err)
}
