package imaging

import (
	"errors"
	"net/http"
)

var (
	ErrEmpty       = errors.New("uploaded file is empty")
	ErrUnsupported = errors.New("unsupported file type")
	ErrRender      = errors.New("failed to render pdf page")
)

// MapHTTPStatus maps imaging errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmpty), errors.Is(err, ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, ErrRender):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
