package inference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmojica26/womenhealthytips.com/internal/llm"
	"github.com/lmojica26/womenhealthytips.com/internal/logging"
	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

type memoryStore struct {
	mu   sync.Mutex
	logs []models.InferenceLog
	err  error
}

func (m *memoryStore) Create(_ context.Context, log models.InferenceLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

func TestRecordCallPersistsEntry(t *testing.T) {
	store := &memoryStore{}
	logger := NewLogger(store, logging.Discard())

	logger.RecordCall(context.Background(), llm.CallRecord{
		Provider:     llm.ProviderOpenAI,
		Model:        "gpt-4-turbo-preview",
		Operation:    "blog_post",
		InputTokens:  1000,
		OutputTokens: 2000,
		Latency:      1500 * time.Millisecond,
	})
	logger.RecordCall(context.Background(), llm.CallRecord{
		Provider:  llm.ProviderAnthropic,
		Model:     "claude-sonnet-4-20250514",
		Operation: "blog_post",
		Err:       errors.New("overloaded"),
	})
	logger.Wait()

	require.Len(t, store.logs, 2)
	byStatus := map[string]models.InferenceLog{}
	for _, l := range store.logs {
		byStatus[l.Status] = l
	}
	ok := byStatus["success"]
	assert.Equal(t, 3000, ok.TokensUsed)
	assert.Equal(t, 1500, ok.LatencyMs)
	assert.InDelta(t, 0.07, ok.CostUSD, 1e-9)

	failed := byStatus["error"]
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "overloaded", *failed.ErrorMessage)
}

func TestRecordCallSwallowsStoreErrors(t *testing.T) {
	logger := NewLogger(&memoryStore{err: errors.New("db down")}, logging.Discard())
	logger.RecordCall(context.Background(), llm.CallRecord{Provider: llm.ProviderOpenAI, Model: "gpt-4o"})
	logger.Wait()
}

func TestRecordCallAfterWaitIsDropped(t *testing.T) {
	store := &memoryStore{}
	logger := NewLogger(store, logging.Discard())
	logger.Wait()

	logger.RecordCall(context.Background(), llm.CallRecord{Provider: llm.ProviderOpenAI, Model: "gpt-4o"})
	logger.Wait()

	assert.Empty(t, store.logs)
}

func TestWaitDuringConcurrentRecords(t *testing.T) {
	store := &memoryStore{}
	logger := NewLogger(store, logging.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.RecordCall(context.Background(), llm.CallRecord{Provider: llm.ProviderOpenAI, Model: "gpt-4o"})
		}()
	}
	logger.Wait()
	store.mu.Lock()
	flushed := len(store.logs)
	store.mu.Unlock()
	wg.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, flushed, len(store.logs), "no write may land after Wait returns")
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 3.0+15.0, EstimateCost(llm.ProviderAnthropic, "claude-sonnet-4-20250514", 1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 5.0, EstimateCost(llm.ProviderOpenAI, "some-new-model", 1_000_000, 0), 1e-9)
	assert.InDelta(t, 3.0, EstimateCost(llm.ProviderAnthropic, "claude-next", 1_000_000, 0), 1e-9)
	assert.InDelta(t, imagePrice, EstimateCost(llm.ProviderOpenAI, "dall-e-3", 0, 0), 1e-9)
}
