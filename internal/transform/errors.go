package transform

import "errors"

var (
	// ErrNoImage indicates the model answered without an image part.
	ErrNoImage = errors.New("response contained no image")
	// ErrEmptySource indicates the request carried no source bytes.
	ErrEmptySource = errors.New("source image is empty")
)
