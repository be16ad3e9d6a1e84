package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicOptions configures the Anthropic backend.
type AnthropicOptions struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	Recorder CallRecorder
}

// Anthropic implements Provider on the Anthropic Messages API. The API has
// no JSON mode, so callers extract the object from free text.
type Anthropic struct {
	client   anthropic.Client
	model    string
	timeout  time.Duration
	recorder CallRecorder
}

// NewAnthropic constructs the Anthropic backend.
func NewAnthropic(opts AnthropicOptions) (*Anthropic, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey), option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &Anthropic{
		client:   anthropic.NewClient(clientOpts...),
		model:    opts.Model,
		timeout:  opts.Timeout,
		recorder: recorderOrNop(opts.Recorder),
	}, nil
}

func (a *Anthropic) Name() string         { return ProviderAnthropic }
func (a *Anthropic) Model() string        { return a.model }
func (a *Anthropic) ConstrainsJSON() bool { return false }

// Complete sends the system prompt and a single user message.
func (a *Anthropic) Complete(ctx context.Context, req Request) (Completion, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	apiCtx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	message, err := a.client.Messages.New(apiCtx, params)
	rec := CallRecord{
		Provider:  ProviderAnthropic,
		Model:     a.model,
		Operation: req.Operation,
		Latency:   time.Since(start),
	}

	var out Completion
	switch {
	case err != nil:
		err = fmt.Errorf("anthropic messages: %w", err)
	default:
		rec.InputTokens = int(message.Usage.InputTokens)
		rec.OutputTokens = int(message.Usage.OutputTokens)

		var b strings.Builder
		for _, block := range message.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			err = fmt.Errorf("anthropic: %w", ErrNoContent)
			break
		}
		out = Completion{
			Text:         text,
			Model:        a.model,
			InputTokens:  rec.InputTokens,
			OutputTokens: rec.OutputTokens,
		}
	}

	rec.Err = err
	a.recorder.RecordCall(ctx, rec)
	return out, err
}
