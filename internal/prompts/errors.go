package prompts

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("prompt not found")
	ErrDuplicate    = errors.New("prompt name already exists")
	ErrInvalidID    = errors.New("prompt id must be a UUID")
	ErrEmptyField   = errors.New("name and instructions are required")
	ErrInvalidStage = errors.New("stage must be analyze, synthesize, chat, or judge")
)

// MapHTTPStatus maps prompt errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidStage), errors.Is(err, ErrEmptyField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
