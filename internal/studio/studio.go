// Package studio implements the photo workflow for a single browser session:
// mode selection, source upload, customization, submission to a Transformer,
// and export of the transformed result.
package studio

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mode is the output style of a transformation.
type Mode string

const (
	ModeHeadshot Mode = "HEADSHOT"
	ModePassport Mode = "PASSPORT"
)

// ParseMode accepts a mode name in any letter case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeHeadshot:
		return ModeHeadshot, nil
	case ModePassport:
		return ModePassport, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Lower returns the lowercase mode name used in filenames and URLs.
func (m Mode) Lower() string {
	return strings.ToLower(string(m))
}

// View is the screen the session is currently showing.
type View string

const (
	ViewHome       View = "HOME"
	ViewProcessing View = "PROCESSING"
	ViewResult     View = "RESULT"
)

// Image is an encoded image held in memory.
type Image struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the image carries no bytes.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// Field names a customization option.
type Field string

const (
	FieldBackground Field = "background"
	FieldAttire     Field = "attire"
)

// Options are the cosmetic descriptors passed through to the Transformer.
type Options struct {
	Background string `json:"background"`
	Attire     string `json:"attire"`
}

// DefaultOptions returns the options a new session starts with.
func DefaultOptions() Options {
	return Options{
		Background: DefaultBackground,
		Attire:     DefaultAttire,
	}
}

// Request is assembled at submission time and handed to the Transformer.
type Request struct {
	Source  Image
	Mode    Mode
	Options Options
}

// Transformer performs the actual image generation.
type Transformer interface {
	Transform(ctx context.Context, req Request) (Image, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, req Request) (Image, error)

func (f TransformerFunc) Transform(ctx context.Context, req Request) (Image, error) {
	return f(ctx, req)
}

// Outcome describes a finished transformation call. Superseded is set when
// the session was reset while the call was in flight and the outcome was
// therefore not applied.
type Outcome struct {
	Request    Request
	Result     Image
	Err        error
	StartedAt  time.Time
	Duration   time.Duration
	Superseded bool
}

// Observer receives every Outcome after it has been applied (or discarded).
type Observer func(Outcome)

// Snapshot is a read-only copy of the session state for rendering.
type Snapshot struct {
	View    View
	Mode    Mode
	Source  Image
	Result  Image
	Options Options
	Busy    bool
	Error   string
}

// HasSource reports whether a source image is present.
func (s Snapshot) HasSource() bool {
	return !s.Source.Empty()
}

// HasResult reports whether a transformed image is present.
func (s Snapshot) HasResult() bool {
	return !s.Result.Empty()
}

// CanSubmit reports whether Submit would start a request.
func (s Snapshot) CanSubmit() bool {
	return s.HasSource() && s.Mode != "" && !s.Busy
}

// Export is a result ready to be saved by the browser.
type Export struct {
	Filename string
	MIMEType string
	Data     []byte
}

// ExportFilename builds proshot_<mode>_<unix-millis>.png.
func ExportFilename(mode Mode, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d.png", ExportPrefix, mode.Lower(), at.UnixMilli())
}
