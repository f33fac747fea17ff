// Package imaging turns uploaded files into display-ready image buffers.
// Raster images pass through unchanged; PDFs are rendered to a PNG of their first page.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/proshot/internal/studio"
)

const pdfType = "application/pdf"

// rasterTypes are the sniffed formats accepted as source images. Formats that
// can carry script, such as SVG, never match.
var rasterTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

var heifBrands = map[string]string{
	"heic": "image/heic",
	"heix": "image/heic",
	"hevc": "image/heic",
	"hevx": "image/heic",
	"mif1": "image/heif",
	"msf1": "image/heif",
}

// Renderer rasterizes the first page of a PDF to PNG bytes.
type Renderer interface {
	RenderFirstPage(pdf []byte) ([]byte, error)
}

// Decoder converts raw uploads into studio images.
type Decoder struct {
	renderer Renderer
	logger   *slog.Logger
}

// New creates a Decoder that renders PDFs through ImageMagick.
func New(logger *slog.Logger) *Decoder {
	return NewWithRenderer(magickRenderer{}, logger)
}

// NewWithRenderer creates a Decoder with a custom PDF renderer.
func NewWithRenderer(r Renderer, logger *slog.Logger) *Decoder {
	return &Decoder{
		renderer: r,
		logger:   logger.With("system", "imaging"),
	}
}

// Decode accepts what the file picker allows (image/* or .pdf). Images must
// sniff as a raster format and keep the sniffed type, whatever was declared.
// Content beyond the type check is not validated.
func (d *Decoder) Decode(data []byte, filename, declaredType string) (studio.Image, error) {
	if len(data) == 0 {
		return studio.Image{}, ErrEmpty
	}

	contentType := DetectContentType(declaredType, filename, data)

	switch {
	case contentType == pdfType:
		return d.decodePDF(data, filename)
	case strings.HasPrefix(contentType, "image/"):
		mimeType, ok := SniffImage(data)
		if !ok {
			return studio.Image{}, fmt.Errorf("%w: %s is not a raster image", ErrUnsupported, contentType)
		}
		return studio.Image{Data: data, MIMEType: mimeType}, nil
	default:
		return studio.Image{}, fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}
}

// SniffImage identifies a raster image from its leading bytes.
func SniffImage(data []byte) (string, bool) {
	if sniffed := baseType(http.DetectContentType(data)); rasterTypes[sniffed] {
		return sniffed, true
	}
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		if mimeType, ok := heifBrands[string(data[8:12])]; ok {
			return mimeType, true
		}
	}
	return "", false
}

func (d *Decoder) decodePDF(data []byte, filename string) (studio.Image, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return studio.Image{}, fmt.Errorf("%w: read pdf: %w", ErrRender, err)
	}
	if count < 1 {
		return studio.Image{}, fmt.Errorf("%w: pdf has no pages", ErrRender)
	}

	png, err := d.renderer.RenderFirstPage(data)
	if err != nil {
		return studio.Image{}, fmt.Errorf("%w: %w", ErrRender, err)
	}

	d.logger.Info(
		"pdf upload rendered",
		"filename", filename,
		"page_count", count,
		"bytes", len(png),
	)

	return studio.Image{Data: png, MIMEType: "image/png"}, nil
}

// DetectContentType prefers a specific declared type, falls back to the .pdf
// extension, and finally sniffs the bytes.
func DetectContentType(declared, filename string, data []byte) string {
	declared = baseType(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return pdfType
	}
	return baseType(http.DetectContentType(data))
}

func baseType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

// DataURI encodes img for inline display in an <img> tag. PNG output goes
// through document-context so rendered PDF pages and generated results share
// one encoder.
func DataURI(img studio.Image) (string, error) {
	if img.Empty() {
		return "", ErrEmpty
	}
	if img.MIMEType == "image/png" {
		return encoding.EncodeImageDataURI(img.Data, document.PNG)
	}
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data), nil
}
