// Package llm wraps the text and image generation backends behind a
// provider-neutral interface.
package llm

import (
	"context"
	"errors"
	"time"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrNoContent is returned when a backend answers without usable text.
var ErrNoContent = errors.New("no content generated")

// Request is one completion call.
type Request struct {
	// Operation labels the call in the provider call log.
	Operation   string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSON asks backends that support it to constrain output to a JSON object.
	JSON bool
}

// Completion is the text returned by a provider.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// TotalTokens returns input plus output tokens.
func (c Completion) TotalTokens() int {
	return c.InputTokens + c.OutputTokens
}

// Provider is a text generation backend.
type Provider interface {
	Name() string
	Model() string
	// ConstrainsJSON reports whether Request.JSON guarantees a bare JSON
	// object in Completion.Text.
	ConstrainsJSON() bool
	Complete(ctx context.Context, req Request) (Completion, error)
}

// ImageRequest asks for a single generated image.
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
}

// ImageProvider is an image generation backend.
type ImageProvider interface {
	ImageModel() string
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// CallRecord describes one backend call for the provider call log.
type CallRecord struct {
	Provider     string
	Model        string
	Operation    string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
	Err          error
}

// CallRecorder receives a CallRecord after every backend call.
type CallRecorder interface {
	RecordCall(ctx context.Context, rec CallRecord)
}

type nopRecorder struct{}

func (nopRecorder) RecordCall(context.Context, CallRecord) {}

func recorderOrNop(r CallRecorder) CallRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
