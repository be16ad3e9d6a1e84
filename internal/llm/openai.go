package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures the OpenAI backend.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	Timeout    time.Duration
	Recorder   CallRecorder
}

// OpenAI implements Provider and ImageProvider on the OpenAI API.
type OpenAI struct {
	client     *openai.Client
	model      string
	imageModel string
	timeout    time.Duration
	recorder   CallRecorder
}

// NewOpenAI constructs the OpenAI backend.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      opts.Model,
		imageModel: opts.ImageModel,
		timeout:    opts.Timeout,
		recorder:   recorderOrNop(opts.Recorder),
	}, nil
}

func (o *OpenAI) Name() string         { return ProviderOpenAI }
func (o *OpenAI) Model() string        { return o.model }
func (o *OpenAI) ImageModel() string   { return o.imageModel }
func (o *OpenAI) ConstrainsJSON() bool { return true }

// Complete sends a system + user chat completion.
func (o *OpenAI) Complete(ctx context.Context, req Request) (Completion, error) {
	request := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	apiCtx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(apiCtx, request)
	rec := CallRecord{
		Provider:  ProviderOpenAI,
		Model:     o.model,
		Operation: req.Operation,
		Latency:   time.Since(start),
	}
	if err == nil {
		rec.InputTokens = resp.Usage.PromptTokens
		rec.OutputTokens = resp.Usage.CompletionTokens
	}

	out, err := o.completion(resp, err)
	rec.Err = err
	o.recorder.RecordCall(ctx, rec)
	return out, err
}

func (o *OpenAI) completion(resp openai.ChatCompletionResponse, err error) (Completion, error) {
	if err != nil {
		return Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("openai: %w", ErrNoContent)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Completion{}, fmt.Errorf("openai: %w", ErrNoContent)
	}
	model := resp.Model
	if model == "" {
		model = o.model
	}
	return Completion{
		Text:         text,
		Model:        model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// GenerateImage requests one image and returns its URL.
func (o *OpenAI) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	apiCtx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateImage(apiCtx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          o.imageModel,
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	rec := CallRecord{
		Provider:  ProviderOpenAI,
		Model:     o.imageModel,
		Operation: "image",
		Latency:   time.Since(start),
	}

	var url string
	switch {
	case err != nil:
		err = fmt.Errorf("openai create image: %w", err)
	case len(resp.Data) == 0 || resp.Data[0].URL == "":
		err = fmt.Errorf("openai: no image generated")
	default:
		url = resp.Data[0].URL
	}
	rec.Err = err
	o.recorder.RecordCall(ctx, rec)
	return url, err
}
