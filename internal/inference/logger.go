package inference

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lmojica26/womenhealthytips.com/internal/llm"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

// Store persists provider call records.
type Store interface {
	Create(ctx context.Context, log models.InferenceLog) error
}

// Logger records every provider call into the inference log. Writes happen
// in the background so provider latency is not extended by the store.
type Logger struct {
	store  Store
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewLogger creates a new inference logger
func NewLogger(store Store, logger *slog.Logger) *Logger {
	return &Logger{
		store:  store,
		logger: logger,
	}
}

// RecordCall implements llm.CallRecorder.
func (l *Logger) RecordCall(_ context.Context, rec llm.CallRecord) {
	entry := models.InferenceLog{
		Provider:     rec.Provider,
		Model:        rec.Model,
		Operation:    rec.Operation,
		InputTokens:  rec.InputTokens,
		OutputTokens: rec.OutputTokens,
		TokensUsed:   rec.InputTokens + rec.OutputTokens,
		LatencyMs:    int(rec.Latency.Milliseconds()),
		CostUSD:      EstimateCost(rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens),
		Status:       "success",
	}
	if rec.Err != nil {
		entry.Status = "error"
		msg := rec.Err.Error()
		entry.ErrorMessage = &msg
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.logger.Warn("inference logger closed, dropping call record",
			"provider", entry.Provider,
			"operation", entry.Operation,
		)
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.store.Create(context.Background(), entry); err != nil {
			l.logger.Error("failed to log inference call", "provider", entry.Provider, "error", err)
		}
	}()
}

// Wait stops accepting new records and blocks until pending writes finish.
func (l *Logger) Wait() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}

type price struct{ input, output float64 }

// per 1M tokens
var pricing = map[string]price{
	"gpt-4o":                     {2.50, 10.00},
	"gpt-4o-mini":                {0.15, 0.60},
	"gpt-4-turbo":                {10.00, 30.00},
	"gpt-4-turbo-preview":        {10.00, 30.00},
	"gpt-3.5-turbo":              {0.50, 1.50},
	"claude-sonnet-4-20250514":   {3.00, 15.00},
	"claude-3-5-sonnet-20240620": {3.00, 15.00},
	"claude-3-opus-20240229":     {15.00, 75.00},
	"claude-3-haiku-20240307":    {0.25, 1.25},
}

// imagePrice is the flat cost of one standard 1792x1024 DALL-E 3 image.
const imagePrice = 0.08

// EstimateCost returns a rough USD estimate for a call. Unknown models use
// the provider's mid-tier rate.
func EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	if model == "dall-e-3" {
		return imagePrice
	}
	p, ok := pricing[model]
	if !ok {
		switch provider {
		case llm.ProviderAnthropic:
			p = price{3.00, 15.00}
		default:
			p = price{5.00, 15.00}
		}
	}
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}
