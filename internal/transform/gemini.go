// Package transform provides the Gemini-backed image Transformer used by the
// studio workflow.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/JaimeStill/proshot/internal/studio"
)

// Generator is the subset of the genai Models service the transformer calls.
type Generator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

var _ studio.Transformer = (*Gemini)(nil)

// Gemini sends the source image and a mode-specific prompt to a Gemini image
// model and returns the first image it responds with.
type Gemini struct {
	models Generator
	model  string
	logger *slog.Logger
}

// New creates a Gemini transformer with a genai client for the Gemini API backend.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return NewWithGenerator(client.Models, cfg.Model, logger), nil
}

// NewWithGenerator creates a Gemini transformer over an existing Generator.
func NewWithGenerator(models Generator, model string, logger *slog.Logger) *Gemini {
	return &Gemini{
		models: models,
		model:  model,
		logger: logger.With("system", "transform"),
	}
}

// Transform implements studio.Transformer.
func (g *Gemini) Transform(ctx context.Context, req studio.Request) (studio.Image, error) {
	if req.Source.Empty() {
		return studio.Image{}, ErrEmptySource
	}

	mimeType := req.Source.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(req.Source.Data)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromBytes(req.Source.Data, mimeType),
				genai.NewPartFromText(Prompt(req.Mode, req.Options)),
			},
			genai.RoleUser,
		),
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return studio.Image{}, fmt.Errorf("generate content: %w", err)
	}

	img, err := firstImage(resp)
	if err != nil {
		return studio.Image{}, err
	}

	g.logger.InfoContext(
		ctx, "image generated",
		"model", g.model,
		"mode", req.Mode,
		"mime_type", img.MIMEType,
		"bytes", len(img.Data),
		"duration", time.Since(start),
	)

	return img, nil
}

func firstImage(resp *genai.GenerateContentResponse) (studio.Image, error) {
	if resp == nil {
		return studio.Image{}, ErrNoImage
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return studio.Image{
				Data:     part.InlineData.Data,
				MIMEType: mimeType,
			}, nil
		}
	}

	return studio.Image{}, ErrNoImage
}
