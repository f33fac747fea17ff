package studio

import (
	"errors"
	"net/http"
)

// FailureMessage is the only error text ever shown to the user.
const FailureMessage = "Failed to transform image. Please try again with a clearer photo."

var (
	ErrNotReady        = errors.New("source image and mode are required")
	ErrBusy            = errors.New("a transformation is already in progress")
	ErrInvalidMode     = errors.New("invalid photo mode")
	ErrUnknownField    = errors.New("unknown customization field")
	ErrNoResult        = errors.New("no result to export")
	ErrTransformFailed = errors.New("transformation failed")
	ErrEmptyResult     = errors.New("transformer returned no image")
	ErrSuperseded      = errors.New("transformation superseded by reset")
)

// MapHTTPStatus maps studio errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidMode), errors.Is(err, ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotReady):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrNoResult):
		return http.StatusNotFound
	case errors.Is(err, ErrTransformFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
