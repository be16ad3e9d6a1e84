package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lmojica26/womenhealthytips.com/internal/llm"
)

// ErrImagesUnavailable is returned when no image backend is configured.
var ErrImagesUnavailable = errors.New("image generation not configured")

// ImageMirror copies a generated image to durable storage and returns the
// URL to persist.
type ImageMirror interface {
	Mirror(ctx context.Context, sourceURL string) (string, error)
}

// ImageStage derives an image prompt from a title and requests one image.
type ImageStage struct {
	text   llm.Provider
	images llm.ImageProvider
	mirror ImageMirror
	logger *slog.Logger
}

// NewImageStage creates an image stage. text writes the image prompt; mirror
// may be nil.
func NewImageStage(text llm.Provider, images llm.ImageProvider, mirror ImageMirror, logger *slog.Logger) *ImageStage {
	return &ImageStage{text: text, images: images, mirror: mirror, logger: logger}
}

// Model returns the image model name.
func (s *ImageStage) Model() string {
	return s.images.ImageModel()
}

// Prompt asks the text backend for an image prompt. An empty answer yields a
// generic prompt built from the title.
func (s *ImageStage) Prompt(ctx context.Context, title, category string) (string, error) {
	if category == "" {
		category = DefaultCategory
	}
	c, err := s.text.Complete(ctx, llm.Request{
		Operation:   "image_prompt",
		System:      imagePromptSystem,
		User:        imagePromptRequest(title, category),
		Temperature: blogTemperature,
		MaxTokens:   imagePromptTokens,
	})
	if err != nil && !errors.Is(err, llm.ErrNoContent) {
		return "", fmt.Errorf("failed to generate image prompt: %w", err)
	}
	if prompt := strings.TrimSpace(c.Text); prompt != "" {
		return prompt, nil
	}
	return fallbackImagePrompt(title), nil
}

// Render generates one image for prompt and mirrors it when a mirror is
// configured. A mirror failure keeps the provider URL.
func (s *ImageStage) Render(ctx context.Context, prompt string) (string, error) {
	url, err := s.images.GenerateImage(ctx, llm.ImageRequest{
		Prompt:  styledImagePrompt(prompt),
		Size:    imageSize,
		Quality: imageQuality,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate image: %w", err)
	}

	if s.mirror == nil {
		return url, nil
	}
	mirrored, err := s.mirror.Mirror(ctx, url)
	if err != nil {
		s.logger.Warn("failed to mirror generated image, keeping provider URL", "error", err)
		return url, nil
	}
	return mirrored, nil
}

// Featured runs the full stage for a title. Failures are logged and reported
// as an empty URL.
func (s *ImageStage) Featured(ctx context.Context, title, category string) string {
	prompt, err := s.Prompt(ctx, title, category)
	if err != nil {
		s.logger.Warn("skipping featured image", "title", title, "error", err)
		return ""
	}
	url, err := s.Render(ctx, prompt)
	if err != nil {
		s.logger.Warn("skipping featured image", "title", title, "error", err)
		return ""
	}
	return url
}
