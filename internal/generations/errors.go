package generations

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("generation not found")
	ErrDuplicate    = errors.New("generation already exists")
	ErrInvalidID    = errors.New("invalid generation id")
	ErrInvalidImage = errors.New("image kind must be source or result")
	ErrNotArchived  = errors.New("generation image not archived")
)

// MapHTTPStatus maps generation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotArchived):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
