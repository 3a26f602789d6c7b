package workflow

import (
	"errors"
	"fmt"
	"net/http"
)

// Stage errors. Each wraps the underlying cause with %w.
var (
	ErrAnalysisFailed   = errors.New("image analysis failed")
	ErrEnrichmentFailed = errors.New("context enrichment failed")
	ErrRetrievalFailed  = errors.New("knowledge retrieval failed")
	ErrSynthesisFailed  = errors.New("diagnosis synthesis failed")
)

// ValidationError reports a model response that violates the expected structure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MapHTTPStatus maps pipeline errors to HTTP status codes.
// Analysis failures are attributed to the submitted image.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAnalysisFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrEnrichmentFailed),
		errors.Is(err, ErrRetrievalFailed),
		errors.Is(err, ErrSynthesisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
