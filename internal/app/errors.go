package app

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/proshot/internal/imaging"
	"github.com/JaimeStill/proshot/internal/studio"
)

var (
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrNoFile       = errors.New("no file uploaded")
	ErrNoImage      = errors.New("no image available")
	ErrNoOptions    = errors.New("no customization values provided")
	ErrRateLimited  = errors.New("too many submissions, please wait a moment")
)

// Notices shown in place of raw errors on rendered pages.
const (
	noticeNotReady = "Select a mode and upload a photo before generating."
	noticeUpload   = "That file could not be used. Upload a JPEG, PNG, or single-page PDF."
	noticeTooLarge = "That file is too large. Try a smaller photo."
	noticeLimited  = "You're generating too quickly. Wait a moment and try again."
)

// MapHTTPStatus maps UI errors, including studio and imaging errors, to HTTP
// status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrNoOptions):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoImage):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, imaging.ErrEmpty), errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrRender):
		return imaging.MapHTTPStatus(err)
	default:
		return studio.MapHTTPStatus(err)
	}
}

func notice(err error) string {
	switch {
	case errors.Is(err, studio.ErrNotReady):
		return noticeNotReady
	case errors.Is(err, ErrFileTooLarge):
		return noticeTooLarge
	case errors.Is(err, ErrRateLimited):
		return noticeLimited
	case errors.Is(err, ErrNoFile), errors.Is(err, imaging.ErrEmpty), errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrRender):
		return noticeUpload
	default:
		return err.Error()
	}
}
