package plants

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("plant not found")
	ErrDuplicate = errors.New("plant name already exists")
	ErrEmptyName = errors.New("plant name is required")

	errInvalidLimit = errors.New("limit must be a positive integer")
)

var statusByError = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrDuplicate, http.StatusConflict},
	{ErrEmptyName, http.StatusBadRequest},
	{errInvalidLimit, http.StatusBadRequest},
}

// MapHTTPStatus returns the status for the first plant error in err's
// chain, or 500.
func MapHTTPStatus(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
